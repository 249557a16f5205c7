package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/menupix/menupix/internal/domain"
	"github.com/menupix/menupix/internal/imagesearch"
	"github.com/menupix/menupix/internal/vision"
)

// Sentinel errors for the two user-visible stop conditions. Anything else
// returned by Scan is an upstream failure.
var (
	ErrNotMenu  = errors.New("image is not a food menu")
	ErrNoDishes = errors.New("no dishes detected on the menu")
)

type MenuService struct {
	visionAPI vision.MenuAnalyzer
	searcher  imagesearch.Searcher
	logger    *slog.Logger
}

func NewMenuService(visionAPI vision.MenuAnalyzer, searcher imagesearch.Searcher, logger *slog.Logger) *MenuService {
	return &MenuService{
		visionAPI: visionAPI,
		searcher:  searcher,
		logger:    logger,
	}
}

// Scan runs the full pipeline on one uploaded image: classify, extract, then
// one image search per dish. It returns the extracted dish names and a
// channel of photo results in the same order; the channel is closed after the
// last dish. No search call is made before the first receive would succeed,
// and none at all when classification or extraction stops the pipeline.
//
// A failed search for an individual dish is not fatal: the dish is emitted
// with an empty ImageURL and the scan continues.
func (s *MenuService) Scan(ctx context.Context, imageData []byte, mimeType string) ([]string, <-chan domain.PhotoResult, error) {
	s.logger.Info("scan started", "mime_type", mimeType, "bytes", len(imageData))

	isMenu, err := s.visionAPI.ClassifyMenu(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to classify image: %w", err)
	}
	if !isMenu {
		s.logger.Info("scan rejected", "reason", "not a menu")
		return nil, nil, ErrNotMenu
	}

	dishes, err := s.visionAPI.ExtractDishes(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract dishes: %w", err)
	}
	// The parser already caps at MaxDishes; enforce it here too so the
	// invariant does not depend on backend behaviour.
	if len(dishes) > domain.MaxDishes {
		dishes = dishes[:domain.MaxDishes]
	}
	if len(dishes) == 0 {
		s.logger.Info("scan rejected", "reason", "no dishes")
		return nil, nil, ErrNoDishes
	}
	s.logger.Info("dishes extracted", "count", len(dishes))

	// Buffered for the whole scan so the producer never blocks on a slow
	// consumer; searches stay strictly sequential in extraction order.
	out := make(chan domain.PhotoResult, len(dishes))
	go func() {
		defer close(out)
		for _, dish := range dishes {
			if ctx.Err() != nil {
				return
			}
			url, err := s.searcher.FirstImage(ctx, dish)
			if err != nil {
				// Degrade to the no-image placeholder and keep going.
				s.logger.Error("image search failed", "dish", dish, "error", err)
				url = ""
			}
			out <- domain.PhotoResult{Dish: dish, ImageURL: url}
		}
		s.logger.Info("scan complete", "dishes", len(dishes))
	}()

	return dishes, out, nil
}
