package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/metrics"
	"tesatiki/internal/models"
	"tesatiki/internal/repository"
)

// SweepReport summarises one maintenance run. Success is false only when a
// listing query failed; individual listing failures and images left behind
// by a purge are in Failures.
type SweepReport struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Demoted  int      `json:"demoted"`
	Purged   int      `json:"purged"`
	Failures []string `json:"failures,omitempty"`
}

type MaintenanceService interface {
	Sweep(ctx context.Context) *SweepReport
}

type maintenanceService struct {
	productRepo repository.ProductRepository
	products    ProductService
	logger      *zap.Logger
	now         func() time.Time
}

func NewMaintenanceService(productRepo repository.ProductRepository, products ProductService, logger *zap.Logger) MaintenanceService {
	return &maintenanceService{
		productRepo: productRepo,
		products:    products,
		logger:      logger,
		now:         time.Now,
	}
}

// Sweep demotes expired paid listings to the free tier and then deletes
// expired free listings with their images.
func (s *maintenanceService) Sweep(ctx context.Context) *SweepReport {
	now := s.now().UTC()
	report := &SweepReport{Success: true}

	s.logger.Info("starting ad expiry sweep")

	paid, err := s.productRepo.ListExpired(ctx, true, now)
	if err != nil {
		report.Success = false
		report.Failures = append(report.Failures, fmt.Sprintf("list expired paid listings: %v", err))
	}

	freeTier := models.TierFor(models.AdTypeFree)
	demotion := models.Fields{
		"ad_type":        models.AdTypeFree,
		"ad_price":       0,
		"ad_duration":    freeTier.Days,
		"is_featured":    false,
		"featured_until": nil,
		"boosted_at":     nil,
		"boosted_until":  nil,
		"expires_at":     now.Add(freeTier.Duration),
		"updated_at":     now,
	}
	for _, product := range paid {
		if _, err := s.productRepo.Update(ctx, product.ID, demotion); err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("demote %s: %v", product.ID, err))
			continue
		}
		metrics.SweepListings.WithLabelValues("demoted").Inc()
		report.Demoted++
	}

	free, err := s.productRepo.ListExpired(ctx, false, now)
	if err != nil {
		report.Success = false
		report.Failures = append(report.Failures, fmt.Sprintf("list expired free listings: %v", err))
	}

	for _, product := range free {
		result := s.products.DeleteWithImages(ctx, product.ID)
		if !result.Success {
			report.Failures = append(report.Failures, fmt.Sprintf("purge %s: %s", product.ID, result.Error))
			continue
		}
		if result.Images != nil {
			for _, imageErr := range result.Images.Errors {
				report.Failures = append(report.Failures, fmt.Sprintf("purge %s: %s", product.ID, imageErr))
			}
		}
		metrics.SweepListings.WithLabelValues("purged").Inc()
		report.Purged++
	}

	if report.Success {
		report.Message = "Ad expiry and cleanup completed"
	} else {
		report.Message = "Ad expiry and cleanup finished with errors"
	}

	s.logger.Info("ad expiry sweep finished",
		zap.Int("demoted", report.Demoted),
		zap.Int("purged", report.Purged),
		zap.Int("failures", len(report.Failures)),
	)
	return report
}
