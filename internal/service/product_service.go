package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/cache"
	"tesatiki/internal/models"
	"tesatiki/internal/repository"
	"tesatiki/internal/security"
	"tesatiki/internal/storage"
	"tesatiki/internal/validation"
)

// ImagePurger removes every stored version of the referenced images.
type ImagePurger interface {
	DeleteAllVersions(ctx context.Context, refs []string) storage.DeleteResult
}

// DeleteReport is the outcome of deleting a listing together with its images.
type DeleteReport struct {
	Success     bool                  `json:"success"`
	ProductName string                `json:"productName,omitempty"`
	Error       string                `json:"error,omitempty"`
	Images      *storage.DeleteResult `json:"images,omitempty"`
}

type ProductService interface {
	Create(ctx context.Context, claims *security.Claims, listing map[string]any) (*models.Product, error)
	Update(ctx context.Context, claims *security.Claims, productID string, updates map[string]any) (*models.Product, error)
	Delete(ctx context.Context, claims *security.Claims, productID string) (*DeleteReport, error)
	DeleteWithImages(ctx context.Context, productID string) *DeleteReport
	DeleteImages(ctx context.Context, claims *security.Claims, productID string, images []string) (*storage.DeleteResult, error)

	Approve(ctx context.Context, productID string) (*models.Product, error)
	Reject(ctx context.Context, productID string) (*DeleteReport, error)
	ApproveEdit(ctx context.Context, productID string) (*models.Product, error)
	RejectEdit(ctx context.Context, productID string) (*models.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	images      ImagePurger
	feedCache   *cache.AsyncStore
	logger      *zap.Logger
	now         func() time.Time
}

func NewProductService(productRepo repository.ProductRepository, images ImagePurger, feedCache *cache.AsyncStore, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
		feedCache:   feedCache,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *productService) Create(ctx context.Context, claims *security.Claims, listing map[string]any) (*models.Product, error) {
	fields := validation.FilterListingFields(listing, false)

	name := stringField(fields, "name")
	category := stringField(fields, "category")
	price, priceOK := parsePrice(fields["price"])
	if name == "" || category == "" || !priceOK {
		return nil, newError(ErrInvalidInput, "name, category and price are required")
	}
	fields["name"] = name
	fields["category"] = category
	fields["price"] = price

	adType := models.AdTypeFree
	if raw, ok := fields["ad_type"]; ok && raw != nil {
		adType, _ = raw.(string)
		if !models.IsKnownAdType(adType) {
			return nil, newError(ErrInvalidInput, "Invalid ad type")
		}
	}
	tier := models.TierFor(adType)

	images := imageRefs(fields["images"])
	if len(images) > tier.MaxImages {
		return nil, imageLimitError(tier)
	}
	fields["images"] = images

	if !tier.IsPaid() {
		count, err := s.productRepo.CountActiveFree(ctx, claims.UserID)
		if err != nil {
			return nil, fail("Failed to create product", err)
		}
		if count >= models.MaxActiveFreeAds {
			return nil, newError(ErrConflict, fmt.Sprintf(
				"Free ad limit reached (%d active). Upgrade to a paid plan or remove an existing free ad.",
				models.MaxActiveFreeAds))
		}
	}

	fields["ad_type"] = tier.Name
	fields["ad_price"] = tier.Price
	fields["ad_duration"] = tier.Days
	fields["is_featured"] = false
	fields["user_id"] = claims.UserID
	fields["status"] = models.StatusPending
	fields["admin_approved"] = false
	fields["created_at"] = s.now().UTC()

	product, err := s.productRepo.Create(ctx, fields)
	if err != nil {
		return nil, fail("Failed to create product", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("user_id", claims.UserID),
		zap.String("ad_type", tier.Name),
	)
	return product, nil
}

func (s *productService) Update(ctx context.Context, claims *security.Claims, productID string, updates map[string]any) (*models.Product, error) {
	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to fetch product")
	}
	if !security.CanMutate(claims, existing.UserID) {
		return nil, newError(ErrForbidden, "Forbidden")
	}

	fields := validation.FilterListingFields(updates, claims.IsAdmin())
	now := s.now().UTC()

	adType := existing.AdType
	if raw, ok := fields["ad_type"]; ok {
		adType, _ = raw.(string)
		if !models.IsKnownAdType(adType) {
			return nil, newError(ErrInvalidInput, "Invalid ad type")
		}
		// a plan change on a listing that has been live needs an admin
		if !claims.IsAdmin() && existing.Status != models.StatusPending &&
			models.TierFor(adType).Name != models.TierFor(existing.AdType).Name {
			return nil, newError(ErrConflict, "Ad type cannot be changed after approval")
		}
	}

	images := []string(existing.Images)
	if raw, ok := fields["images"]; ok {
		images = imageRefs(raw)
		fields["images"] = images
	}
	featured := existing.IsFeatured
	if raw, ok := fields["is_featured"].(bool); ok {
		featured = raw
	}
	if tier := listingTier(adType, featured); len(images) > tier.MaxImages {
		return nil, imageLimitError(tier)
	}

	if claims.IsAdmin() {
		status := models.StatusApproved
		if requested := stringField(updates, "status"); requested != "" {
			status = requested
		}
		if !isKnownStatus(status) {
			return nil, newError(ErrInvalidInput, "Invalid status")
		}
		fields["status"] = status
		fields["admin_approved"] = true
		if fields["approved_at"] == nil {
			if existing.ApprovedAt != nil {
				fields["approved_at"] = *existing.ApprovedAt
			} else {
				fields["approved_at"] = now
			}
		}
	} else {
		fields["status"] = ownerEditStatus(existing.Status)
	}
	fields["updated_at"] = now

	product, err := s.productRepo.Update(ctx, productID, fields)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to update product")
	}

	s.invalidateFeed(ctx)
	return product, nil
}

// ownerEditStatus sends an edited live listing back to moderation and
// leaves every other state as it was.
func ownerEditStatus(current string) string {
	if current == models.StatusApproved {
		return models.StatusEdited
	}
	return current
}

func (s *productService) Delete(ctx context.Context, claims *security.Claims, productID string) (*DeleteReport, error) {
	if err := s.authorize(ctx, claims, productID); err != nil {
		return nil, err
	}
	return s.DeleteWithImages(ctx, productID), nil
}

// DeleteWithImages purges a listing's images and then its record. Image
// failures are logged and reported; only the record deletion decides success.
func (s *productService) DeleteWithImages(ctx context.Context, productID string) *DeleteReport {
	product, err := s.productRepo.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return &DeleteReport{Error: "Product not found"}
	}
	if err != nil {
		s.logger.Error("failed to fetch product for deletion", zap.String("product_id", productID), zap.Error(err))
		return &DeleteReport{Error: "Failed to fetch product"}
	}

	report := &DeleteReport{}
	if len(product.Images) > 0 {
		result := s.images.DeleteAllVersions(ctx, product.Images)
		report.Images = &result
		if len(result.Errors) > 0 {
			s.logger.Warn("some images failed to delete",
				zap.String("product_id", productID),
				zap.Strings("errors", result.Errors),
			)
		}
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		s.logger.Error("failed to delete product", zap.String("product_id", productID), zap.Error(err))
		report.Error = "Failed to delete product"
		return report
	}

	s.invalidateFeed(ctx)
	report.Success = true
	report.ProductName = product.Name
	return report
}

func (s *productService) DeleteImages(ctx context.Context, claims *security.Claims, productID string, images []string) (*storage.DeleteResult, error) {
	if productID != "" {
		if err := s.authorize(ctx, claims, productID); err != nil {
			return nil, err
		}
	}

	result := s.images.DeleteAllVersions(ctx, images)
	return &result, nil
}

func (s *productService) authorize(ctx context.Context, claims *security.Claims, productID string) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return notFoundOr(err, "Product not found", "Failed to fetch product")
	}
	if !security.CanMutate(claims, product.UserID) {
		return newError(ErrForbidden, "Forbidden")
	}
	return nil
}

// Approve publishes a pending listing and opens its tier window.
func (s *productService) Approve(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to fetch product")
	}

	tier := listingTier(product.AdType, product.IsFeatured)
	if len(product.Images) > tier.MaxImages {
		return nil, imageLimitError(tier)
	}

	now := s.now().UTC()
	expires := now.Add(tier.Duration)
	fields := models.Fields{
		"status":         models.StatusApproved,
		"admin_approved": true,
		"approved_at":    now,
		"updated_at":     now,
		"expires_at":     expires,
	}

	switch tier.Name {
	case models.AdTypeFeatured:
		fields["ad_type"] = models.AdTypeFeatured
		fields["is_featured"] = true
		fields["featured_until"] = expires
	case models.AdType7Days, models.AdType30Days:
		fields["boosted_at"] = now
		fields["boosted_until"] = expires
		fields["ad_duration"] = tier.Days
	default:
		fields["ad_type"] = models.AdTypeFree
		fields["is_featured"] = false
		fields["featured_until"] = nil
		fields["boosted_at"] = nil
		fields["boosted_until"] = nil
	}

	updated, err := s.productRepo.Update(ctx, productID, fields)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to approve product")
	}

	s.logger.Info("product approved", zap.String("product_id", productID), zap.String("tier", tier.Name))
	s.invalidateFeed(ctx)
	return updated, nil
}

func (s *productService) Reject(ctx context.Context, productID string) (*DeleteReport, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to fetch product")
	}
	return s.DeleteWithImages(ctx, productID), nil
}

// ApproveEdit accepts an owner's edit without touching the tier window.
func (s *productService) ApproveEdit(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.editedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if tier := listingTier(product.AdType, product.IsFeatured); len(product.Images) > tier.MaxImages {
		return nil, imageLimitError(tier)
	}

	now := s.now().UTC()
	approvedAt := now
	if product.ApprovedAt != nil {
		approvedAt = *product.ApprovedAt
	}

	updated, err := s.productRepo.Update(ctx, productID, models.Fields{
		"status":         models.StatusApproved,
		"admin_approved": true,
		"approved_at":    approvedAt,
		"updated_at":     now,
	})
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to approve edited listing")
	}

	s.invalidateFeed(ctx)
	return updated, nil
}

// RejectEdit puts the listing back to approved. The edited field values
// stay in place since no prior version is kept.
func (s *productService) RejectEdit(ctx context.Context, productID string) (*models.Product, error) {
	if _, err := s.editedProduct(ctx, productID); err != nil {
		return nil, err
	}

	updated, err := s.productRepo.Update(ctx, productID, models.Fields{
		"status":         models.StatusApproved,
		"admin_approved": true,
		"updated_at":     s.now().UTC(),
	})
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to reject edited listing")
	}

	s.invalidateFeed(ctx)
	return updated, nil
}

func (s *productService) editedProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "Failed to fetch product")
	}
	if product.Status != models.StatusEdited {
		return nil, newError(ErrConflict, "Listing has no pending edit")
	}
	return product, nil
}

func (s *productService) invalidateFeed(ctx context.Context) {
	if err := s.feedCache.Invalidate(ctx, cache.ProductsKey); err != nil {
		s.logger.Warn("failed to invalidate product feed", zap.Error(err))
	}
}

// listingTier is the plan a listing is held to. The featured flag outranks
// ad_type.
func listingTier(adType string, featured bool) models.AdTier {
	if featured {
		return models.TierFor(models.AdTypeFeatured)
	}
	return models.TierFor(adType)
}

func imageLimitError(tier models.AdTier) *Error {
	return newError(ErrConflict, fmt.Sprintf("%s ads allow at most %d images", tier.Name, tier.MaxImages))
}

func isKnownStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusEdited:
		return true
	}
	return false
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

func parsePrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, p > 0
	case int:
		return float64(p), p > 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		return f, err == nil && f > 0
	}
	return 0, false
}

// imageRefs keeps the string entries of a decoded JSON array.
func imageRefs(v any) []string {
	refs := []string{}
	switch list := v.(type) {
	case []string:
		refs = append(refs, list...)
	case []any:
		for _, item := range list {
			if ref, ok := item.(string); ok && ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
