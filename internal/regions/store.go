// Package regions owns the per-page collection of redaction rectangles,
// both detection-derived and manually drawn.
package regions

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raaihank/docsentinel/internal/detector"
	"github.com/raaihank/docsentinel/internal/logger"
	"github.com/raaihank/docsentinel/internal/ocr"
)

// Store keys regions by 1-indexed page number. A region never migrates
// between pages; a page key disappears as soon as its last region is removed
// so pages-with-redactions counts stay correct.
type Store struct {
	mu       sync.RWMutex
	pages    map[int][]RedactionRegion
	selected string
	logger   *logger.Logger
}

// NewStore creates an empty region store.
func NewStore(log *logger.Logger) *Store {
	return &Store{
		pages:  make(map[int][]RedactionRegion),
		logger: log.WithComponent("regions"),
	}
}

// AddAutoDetectedRegions converts detections into regions, one per visual
// line of words within each detection, carrying the detection's type,
// confidence and id. It returns the regions created.
func (s *Store) AddAutoDetectedRegions(page int, detections []detector.Detection) []RedactionRegion {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created []RedactionRegion
	for _, det := range detections {
		for _, line := range clusterLines(det.Words) {
			region := regionForLine(line, det)
			s.pages[page] = append(s.pages[page], region)
			created = append(created, region)
		}
	}

	s.logger.Debug("auto regions added",
		zap.Int("page", page),
		zap.Int("detections", len(detections)),
		zap.Int("regions", len(created)),
	)
	return created
}

// AddManualRegion appends a hand-drawn region. Rectangles smaller than 5x5
// pixels are rejected.
func (s *Store) AddManualRegion(page int, x, y, width, height float64) (RedactionRegion, error) {
	if width < minManualSize || height < minManualSize {
		return RedactionRegion{}, fmt.Errorf("region %gx%g below minimum size %gx%g", width, height, minManualSize, minManualSize)
	}
	region := RedactionRegion{
		ID:       uuid.NewString(),
		X:        math.Max(0, x),
		Y:        math.Max(0, y),
		Width:    width,
		Height:   height,
		IsManual: true,
	}

	s.mu.Lock()
	s.pages[page] = append(s.pages[page], region)
	s.mu.Unlock()

	s.logger.Debug("manual region added", zap.Int("page", page), zap.String("id", region.ID))
	return region, nil
}

// RemoveRegion removes a region by id. When the page's last region goes, the
// page key itself is removed. Removing the selected region clears selection.
func (s *Store) RemoveRegion(page int, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.pages[page]
	if !ok {
		return false
	}
	for i, region := range list {
		if region.ID != id {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		if len(list) == 0 {
			delete(s.pages, page)
		} else {
			s.pages[page] = list
		}
		if s.selected == id {
			s.selected = ""
		}
		s.logger.Debug("region removed", zap.Int("page", page), zap.String("id", id))
		return true
	}
	return false
}

// RegionsForPage returns a copy of the page's regions; absent pages yield an
// empty list.
func (s *Store) RegionsForPage(page int) []RedactionRegion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RedactionRegion, len(s.pages[page]))
	copy(out, s.pages[page])
	return out
}

// AllRegions returns a copy of the full page-to-regions mapping.
func (s *Store) AllRegions() map[int][]RedactionRegion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int][]RedactionRegion, len(s.pages))
	for page, list := range s.pages {
		cp := make([]RedactionRegion, len(list))
		copy(cp, list)
		out[page] = cp
	}
	return out
}

// ClearPage removes all regions on one page.
func (s *Store) ClearPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, page)
	s.selected = ""
}

// ClearAll empties the store. Called when a new document is loaded or the
// session resets.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int][]RedactionRegion)
	s.selected = ""
}

// Count returns the total region count across pages.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, list := range s.pages {
		total += len(list)
	}
	return total
}

// Select marks a region id as selected; Selected returns the current one.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Selected returns the currently selected region id, if any.
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// clusterLines groups a detection's words into visual lines. A single
// detection may span multiple text lines on the page, so one rectangle per
// line is needed to cover it without over-painting.
func clusterLines(words []ocr.Word) [][]ocr.Word {
	if len(words) == 0 {
		return nil
	}
	var lines [][]ocr.Word
	start := 0
	for i := 1; i <= len(words); i++ {
		if i == len(words) || math.Abs(words[i].BBox.Y0-words[i-1].BBox.Y0) >= lineTolerance {
			lines = append(lines, words[start:i])
			start = i
		}
	}
	return lines
}

// regionForLine spans from the first word's top-left to the last word's
// bottom-right. Degenerate geometry is clamped to zero, which renders
// nothing rather than erroring.
func regionForLine(line []ocr.Word, det detector.Detection) RedactionRegion {
	first := line[0].BBox
	last := line[len(line)-1].BBox
	return RedactionRegion{
		ID:          uuid.NewString(),
		DetectionID: det.ID,
		X:           math.Max(0, first.X0),
		Y:           math.Max(0, first.Y0),
		Width:       math.Max(0, last.X1-first.X0),
		Height:      math.Max(0, last.Y1-first.Y0),
		PIIType:     det.Type,
		Confidence:  det.Confidence,
		IsManual:    false,
	}
}
