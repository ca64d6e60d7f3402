package usecase

import "errors"

var (
	// ErrInvalidInput входные данные отклонены до открытия соединения
	ErrInvalidInput = errors.New("invalid input")

	// ErrAggregationFault снимок имеет неожиданную форму и отчет построить нельзя
	ErrAggregationFault = errors.New("internal aggregation fault")
)
