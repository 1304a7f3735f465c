package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-match-go/internal/config"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var mysqlTracer = otel.Tracer("resume-match-go/storage/mysql")

// ErrAnalysisNotFound is returned when the requested analysis id has no row.
var ErrAnalysisNotFound = errors.New("analysis not found")

type gormSpanKey struct{}

// GormTracingPlugin registers GORM callbacks that open one client span per
// database operation.
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin builds the plugin for one database.
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name implements gorm.Plugin.
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize implements gorm.Plugin.
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after())
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}
		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}
		if stmt := db.Statement.SQL.String(); stmt != "" {
			opts = append(opts, trace.WithAttributes(
				attribute.String("db.statement", tracing.SafeSQL(stmt)),
			))
		}
		newCtx, span := p.tracer.Start(ctx, operation+" "+tableName, opts...)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// A miss is a normal business outcome, not a database failure.
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// MySQL persists analyses and can serve as the corpus source of record.
type MySQL struct {
	db     *gorm.DB
	cfg    *config.MySQLConfig
	logger zerolog.Logger
}

// NewMySQL connects, configures the pool, installs tracing and migrates the
// schema.
func NewMySQL(cfg *config.MySQLConfig, logger zerolog.Logger) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config is nil")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	default:
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("install gorm tracing plugin: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg, logger: logger}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	logger.Info().Str("database", cfg.Database).Msg("mysql connected, schema migrated")
	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	// Migration noise is not interesting at Info level.
	silent := m.db.Session(&gorm.Session{Logger: m.db.Logger.LogMode(gormlogger.Silent)})
	return silent.AutoMigrate(
		&models.JobPosting{},
		&models.Analysis{},
	)
}

// DB exposes the underlying handle for tests and migrations.
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAnalysis upserts one persisted analysis row.
func (m *MySQL) SaveAnalysis(ctx context.Context, analysis models.Analysis) error {
	return m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "analysis_id"}},
			UpdateAll: true,
		}).
		Create(&analysis).Error
}

// GetAnalysis fetches one analysis by id. Misses map to ErrAnalysisNotFound.
func (m *MySQL) GetAnalysis(ctx context.Context, analysisID string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := m.db.WithContext(ctx).First(&analysis, "analysis_id = ?", analysisID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// DeleteAnalysis removes one analysis row. Deleting a missing row maps to
// ErrAnalysisNotFound so the API can answer 404.
func (m *MySQL) DeleteAnalysis(ctx context.Context, analysisID string) error {
	res := m.db.WithContext(ctx).Delete(&models.Analysis{}, "analysis_id = ?", analysisID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// GetAnalysisByDigest returns the newest analysis covering the same bytes
// and match knobs, used when the Redis dedupe entry has expired.
func (m *MySQL) GetAnalysisByDigest(ctx context.Context, requestDigest string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := m.db.WithContext(ctx).
		Where("request_digest = ?", requestDigest).
		Order("created_at DESC").
		First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// LoadCorpusRecords reads every job posting row for corpus construction.
// Rows that fail to decode are skipped with a warning rather than sinking
// the whole load.
func (m *MySQL) LoadCorpusRecords(ctx context.Context) ([]types.JobRecord, error) {
	var rows []models.JobPosting
	if err := m.db.WithContext(ctx).Order("job_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load job postings: %w", err)
	}
	records := make([]types.JobRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord()
		if err != nil {
			m.logger.Warn().Err(err).Str("job_id", rows[i].JobID).Msg("skipping malformed job posting row")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// SeedJobPostings upserts corpus records into the job_postings table, used
// by operational tooling to promote a CSV corpus into MySQL.
func (m *MySQL) SeedJobPostings(ctx context.Context, records []types.JobRecord) error {
	for _, rec := range records {
		row, err := models.JobPostingFromRecord(rec)
		if err != nil {
			return err
		}
		err = m.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "job_id"}},
				UpdateAll: true,
			}).
			Create(&row).Error
		if err != nil {
			return fmt.Errorf("seed job %s: %w", rec.ID, err)
		}
	}
	return nil
}
