package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutrition-backend/internal/meals"
	"nutrition-backend/internal/shared/storage/object"
	"nutrition-backend/internal/shared/telemetry"
	"nutrition-backend/internal/shared/util"
)

// MealSource reads a user's meal log.
type MealSource interface {
	Entries(ctx context.Context, userID string) ([]meals.Entry, error)
}

type Service struct {
	Meals   MealSource
	Objects object.ObjectStore
	Now     func() time.Time
}

func NewService(mealSrc MealSource, objects object.ObjectStore) *Service {
	return &Service{
		Meals:   mealSrc,
		Objects: objects,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	entries, err := s.Meals.Entries(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries, s.Now()), nil
}

// ExportReport renders the weekly and monthly calorie summary and stores it
// under reports/<hashed user>/.
func (s *Service) ExportReport(ctx context.Context, userID string) (Report, error) {
	sum, err := s.Summary(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	text := RenderReport(sum)
	if s.Objects == nil {
		return Report{Text: text}, nil
	}

	now := s.Now().UTC()
	key := fmt.Sprintf("reports/%s/%s-nutrition.txt", util.HashUserKey(userID), now.Format("20060102T150405Z"))
	if _, err := s.Objects.SaveWithKey(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		return Report{}, fmt.Errorf("save report: %w", err)
	}
	telemetry.Info("analytics.report_exported", map[string]any{"user_id": userID, "key": key})
	return Report{Key: key, Text: text}, nil
}

// RenderReport formats a summary as the shareable text report.
func RenderReport(s Summary) string {
	var b strings.Builder
	b.WriteString("Nutritional Report\n\n")
	b.WriteString("--- Weekly Summary ---\n")
	fmt.Fprintf(&b, "Total Calories: %s\n", formatNumber(s.Weekly.Total))
	for i, label := range s.Weekly.Labels {
		fmt.Fprintf(&b, "  %s: %s\n", label, formatNumber(s.Weekly.Calories[i]))
	}
	b.WriteString("\n--- Monthly Summary ---\n")
	fmt.Fprintf(&b, "Total Calories: %s\n", formatNumber(s.Monthly.Total))
	if s.LoggedDays > 0 {
		fmt.Fprintf(&b, "Average per logged day: %s kcal over %d days\n", formatNumber(s.DailyAverage.Calories), s.LoggedDays)
	}
	b.WriteString("\n--- Tips ---\n")
	for _, t := range s.Tips {
		fmt.Fprintf(&b, "- %s\n", t.Text)
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
