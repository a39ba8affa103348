package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/dashboard"
	"github.com/Ridhim15/Danam-Application/internal/db"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/ngo"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildMetrics turns dashboard totals into one datum per NGO and category
func buildMetrics(totals []models.DashboardTotals, now time.Time) []cwtypes.MetricDatum {
	var metrics []cwtypes.MetricDatum
	for _, t := range totals {
		for _, c := range []struct {
			category string
			value    int
		}{
			{"food", t.Food},
			{"books", t.Books},
			{"clothes", t.Clothes},
			{"medical", t.Medical},
			{"total", t.Total},
		} {
			metrics = append(metrics, cwtypes.MetricDatum{
				MetricName: awsStr("ItemsDonated"),
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      awsFloat(int64(c.value)),
				Dimensions: append(dims("NGO", t.NGO.ID), dims("Category", c.category)...),
			})
		}
		metrics = append(metrics, cwtypes.MetricDatum{
			MetricName: awsStr("Donations"),
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      awsFloat(int64(t.Donations)),
			Dimensions: dims("NGO", t.NGO.ID),
		})
	}
	return metrics
}

func putMetrics(ctx context.Context, cw *cloudwatch.Client, ns string, metrics []cwtypes.MetricDatum) error {
	_, err := cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &ns,
		MetricData: metrics,
	})
	return err
}

func handler(ctx context.Context) (string, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-south-1"
	}
	ns := os.Getenv("METRIC_NAMESPACE")
	if ns == "" {
		ns = "Danam/Dashboard"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("aws config: %w", err)
	}
	cw := cloudwatch.NewFromConfig(awsCfg)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		secretArn := os.Getenv("DATABASE_SECRET_ARN")
		if secretArn == "" {
			secretArn = os.Getenv("SECRET_ARN")
		}
		if secretArn == "" {
			return "", fmt.Errorf("DATABASE_URL or DATABASE_SECRET_ARN env var is required")
		}
		dbURL, err = db.URLFromSecret(ctx, secretsmanager.NewFromConfig(awsCfg), secretArn)
		if err != nil {
			return "", err
		}
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return "", fmt.Errorf("parse db url: %w", err)
	}
	// keep pool tiny
	cfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("connect db: %w", err)
	}
	database := db.NewFromPool(pool)
	defer database.Close()

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	totals, err := dashboard.NewAggregator(database, ngo.NewDirectory(database)).AllTotals(queryCtx)
	if err != nil {
		return "", fmt.Errorf("dashboard totals: %w", err)
	}

	for _, t := range totals {
		log.Printf("[DASHBOARD] ngo=%s food=%d books=%d clothes=%d medical=%d total=%d donations=%d",
			t.NGO.ID, t.Food, t.Books, t.Clothes, t.Medical, t.Total, t.Donations)
	}

	if err := putMetrics(ctx, cw, ns, buildMetrics(totals, time.Now())); err != nil {
		log.Printf("PutMetricData failed: %v", err)
	}
	return fmt.Sprintf("published totals for %d NGOs", len(totals)), nil
}

func awsStr(s string) *string { return &s }

func awsFloat(v int64) *float64 { f := float64(v); return &f }

func dims(k, v string) []cwtypes.Dimension {
	return []cwtypes.Dimension{{Name: awsStr(k), Value: awsStr(v)}}
}

func main() {
	lambda.Start(handler)
}
