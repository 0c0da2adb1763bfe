package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/thibovi/rebilt-backend/internal/config"
	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/logging"
)

// MetricPutter is the part of the CloudWatch client used here
type MetricPutter interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

func putMetric(ctx context.Context, cw MetricPutter, ns string, rows int64) error {
	now := time.Now()
	_, err := cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(ns),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String("RowsCleared"),
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(rows)),
			Dimensions: []cwtypes.Dimension{{Name: aws.String("Collection"), Value: aws.String(db.CollUsers)}},
		}},
	})
	return err
}

// cleanup clears expired reset codes and reports how many users were touched
func cleanup(ctx context.Context, database *db.Database, cw MetricPutter, ns string, now time.Time) (int64, error) {
	rows, err := database.ClearExpiredResetCodes(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("clear expired reset codes: %w", err)
	}
	if cw != nil {
		if err := putMetric(ctx, cw, ns, rows); err != nil {
			// The cleanup itself succeeded
			log.Printf("[WARN] put metric: %v", err)
		}
	}
	return rows, nil
}

func handler(ctx context.Context) (string, error) {
	cfg, err := config.Load("")
	if err != nil {
		return "", err
	}
	logging.Init(cfg.LogLevel)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return "", fmt.Errorf("aws config: %w", err)
	}
	if err := cfg.ApplySecrets(ctx, secretsmanager.NewFromConfig(awsCfg)); err != nil {
		return "", err
	}

	database, err := db.NewDatabase(ctx, db.Options{
		Type:          cfg.DBType,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		DatabaseURL:   cfg.DatabaseURL,
		MaxRetries:    2,
	})
	if err != nil {
		return "", err
	}
	defer database.Close(context.Background())

	ns := os.Getenv("METRIC_NAMESPACE")
	if ns == "" {
		ns = "Rebilt/ResetCodeCleanup"
	}
	rows, err := cleanup(ctx, database, cloudwatch.NewFromConfig(awsCfg), ns, time.Now())
	if err != nil {
		return "", err
	}
	logging.LogKV("info", "reset codes cleared", map[string]interface{}{"rows": rows})
	return fmt.Sprintf("cleared %d reset codes", rows), nil
}

func main() {
	log.SetOutput(os.Stdout)
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		lambda.Start(handler)
		return
	}
	out, err := handler(context.Background())
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	log.Println(out)
}
