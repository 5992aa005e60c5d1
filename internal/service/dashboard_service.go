package service

import (
	"time"

	"go-fulfillment-ws/internal/repository"
)

type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats() (*repository.DashboardStats, error)
}

type dashboardService struct {
	lotRepo repository.LotRepository
}

func NewDashboardService(lotRepo repository.LotRepository) DashboardService {
	return &dashboardService{lotRepo: lotRepo}
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.lotRepo.GetStockMovement(startDate, endDate)
}

func (s *dashboardService) GetDashboardStats() (*repository.DashboardStats, error) {
	return s.lotRepo.GetDashboardStats()
}
