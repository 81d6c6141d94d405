package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

func tracedDB(t *testing.T) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Use(GORMTracingPlugin(tp)))
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db, rec
}

func TestInitTracerDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "mask-api"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestGORMPluginRecordsOperations(t *testing.T) {
	db, rec := tracedDB(t)
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var got widget
	require.NoError(t, db.WithContext(ctx).First(&got).Error)

	names := map[string]bool{}
	for _, s := range rec.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["db.insert"])
	assert.True(t, names["db.select"])

	var selected map[string]string
	for _, s := range rec.Ended() {
		if s.Name() != "db.select" {
			continue
		}
		attrs := map[string]string{}
		for _, kv := range s.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		if strings.Contains(attrs["db.statement"], "FROM `widgets`") {
			selected = attrs
		}
	}
	require.NotNil(t, selected, "no select span for widgets")
	assert.Equal(t, "sqlite", selected["db.system"])
	assert.Equal(t, "widgets", selected["db.sql.table"])
	assert.Contains(t, selected["db.statement"], "SELECT")
}

func TestGORMPluginOmitsUnknownTable(t *testing.T) {
	db, rec := tracedDB(t)

	var n int
	require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&n).Error)

	for _, s := range rec.Ended() {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.sql.table" {
				assert.NotEqual(t, "unknown", kv.Value.Emit())
				assert.NotEmpty(t, kv.Value.Emit())
			}
		}
	}
}

func TestGORMPluginIgnoresNotFound(t *testing.T) {
	db, rec := tracedDB(t)

	var got widget
	err := db.WithContext(context.Background()).First(&got, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	for _, s := range rec.Ended() {
		if s.Name() == "db.select" {
			assert.NotEqual(t, codes.Error, s.Status().Code)
		}
	}
}

func TestEndRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	_, span := tp.Tracer("test").Start(context.Background(), "s3.put")
	End(span, errors.New("access denied"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "access denied", ended[0].Status().Description)
}
