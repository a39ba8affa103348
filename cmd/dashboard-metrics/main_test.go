package main

import (
	"testing"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/models"
)

func TestBuildMetrics(t *testing.T) {
	totals := []models.DashboardTotals{{
		NGO:       models.NGO{ID: "goonj", Name: "Goonj"},
		Food:      2,
		Books:     1,
		Total:     3,
		Donations: 1,
	}}
	metrics := buildMetrics(totals, time.Now())
	if len(metrics) != 6 {
		t.Fatalf("got %d metrics, want 6", len(metrics))
	}

	food := metrics[0]
	if *food.MetricName != "ItemsDonated" || *food.Value != 2 {
		t.Fatalf("food datum = %s %v", *food.MetricName, *food.Value)
	}
	if len(food.Dimensions) != 2 || *food.Dimensions[0].Value != "goonj" || *food.Dimensions[1].Value != "food" {
		t.Fatalf("food dimensions = %+v", food.Dimensions)
	}

	last := metrics[5]
	if *last.MetricName != "Donations" || *last.Value != 1 || len(last.Dimensions) != 1 {
		t.Fatalf("donations datum = %s %v %d", *last.MetricName, *last.Value, len(last.Dimensions))
	}
}

func TestBuildMetricsEmpty(t *testing.T) {
	if got := buildMetrics(nil, time.Now()); len(got) != 0 {
		t.Fatalf("got %d metrics for no NGOs", len(got))
	}
}
