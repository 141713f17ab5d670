package application

import "github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"

// ToStockRecordDTO converts a domain stock record to its DTO
func ToStockRecordDTO(record *domain.StockRecord) *StockRecordDTO {
	if record == nil {
		return nil
	}

	return &StockRecordDTO{
		ProductID:         record.ProductID,
		SKU:               record.SKU,
		Quantity:          record.Quantity,
		ReservedQuantity:  record.ReservedQuantity,
		AvailableQuantity: record.AvailableQuantity,
		WarehouseLocation: record.WarehouseLocation,
		ReorderLevel:      record.ReorderLevel,
		MaxStockLevel:     record.MaxStockLevel,
		IsLowStock:        record.IsLowStock(),
		IsOutOfStock:      record.IsOutOfStock(),
		LastRestockedAt:   record.LastRestockedAt,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

// ToStockRecordDTOs converts a slice of stock records
func ToStockRecordDTOs(records []*domain.StockRecord) []*StockRecordDTO {
	dtos := make([]*StockRecordDTO, len(records))
	for i, record := range records {
		dtos[i] = ToStockRecordDTO(record)
	}
	return dtos
}

// ToMovementDTO converts a domain movement to its DTO
func ToMovementDTO(movement *domain.Movement) *MovementDTO {
	if movement == nil {
		return nil
	}

	return &MovementDTO{
		MovementID:       movement.ID,
		ProductID:        movement.ProductID,
		MovementType:     string(movement.MovementType),
		Quantity:         movement.Quantity,
		PreviousQuantity: movement.PreviousQuantity,
		NewQuantity:      movement.NewQuantity,
		ReferenceType:    string(movement.ReferenceType),
		ReferenceID:      movement.ReferenceID,
		Notes:            movement.Notes,
		PerformedBy:      movement.PerformedBy,
		CreatedAt:        movement.CreatedAt,
	}
}

// ToMovementDTOs converts a slice of movements
func ToMovementDTOs(movements []*domain.Movement) []*MovementDTO {
	dtos := make([]*MovementDTO, len(movements))
	for i, movement := range movements {
		dtos[i] = ToMovementDTO(movement)
	}
	return dtos
}

// ToAlertDTO converts a stock alert to its DTO
func ToAlertDTO(alert *domain.StockAlert) *AlertDTO {
	if alert == nil {
		return nil
	}

	return &AlertDTO{
		ProductID:       alert.ProductID,
		ProductName:     alert.ProductName,
		AlertType:       string(alert.AlertType),
		Status:          string(alert.Status),
		Message:         alert.Message,
		CurrentQuantity: alert.CurrentQuantity,
		Threshold:       alert.Threshold,
		CreatedAt:       alert.CreatedAt,
		ResolvedAt:      alert.ResolvedAt,
	}
}

// ToAlertDTOs converts a slice of alerts
func ToAlertDTOs(alerts []*domain.StockAlert) []*AlertDTO {
	dtos := make([]*AlertDTO, len(alerts))
	for i, alert := range alerts {
		dtos[i] = ToAlertDTO(alert)
	}
	return dtos
}

// ToAlertStatsDTO converts alert stats
func ToAlertStatsDTO(stats *domain.AlertStats) *AlertStatsDTO {
	if stats == nil {
		return nil
	}

	return &AlertStatsDTO{
		Active:   stats.Active,
		Critical: stats.Critical,
		Resolved: stats.Resolved,
		Ignored:  stats.Ignored,
		Total:    stats.Total,
	}
}

// ToReorderSuggestionDTO converts a reorder suggestion to its DTO
func ToReorderSuggestionDTO(suggestion *domain.ReorderSuggestion) *ReorderSuggestionDTO {
	if suggestion == nil {
		return nil
	}

	return &ReorderSuggestionDTO{
		ProductID:         suggestion.ProductID,
		ProductName:       suggestion.ProductName,
		SKU:               suggestion.SKU,
		AvailableQuantity: suggestion.AvailableQuantity,
		MaxStockLevel:     suggestion.MaxStockLevel,
		SuggestedQuantity: suggestion.SuggestedQuantity,
		Status:            string(suggestion.Status),
		GeneratedAt:       suggestion.GeneratedAt,
	}
}
