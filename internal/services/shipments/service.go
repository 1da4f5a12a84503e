package shipments

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BearBump/ShipBoard/internal/broker/messages"
	"github.com/BearBump/ShipBoard/internal/cache"
	"github.com/BearBump/ShipBoard/internal/ingest"
	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/BearBump/ShipBoard/internal/storage/pgshipments"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// WarehouseCapacity is the assumed total warehouse capacity in cubic
// centimeters; utilization is reported against it.
const WarehouseCapacity = 60_000_000_000

const insightsKey = "insights:summary"

type Repository interface {
	UpsertShipments(ctx context.Context, batch []*models.ShipmentUpsert) error
	GetShipment(ctx context.Context, shipmentID int64) (*models.Shipment, error)
	ListShipments(ctx context.Context, q pgshipments.ListQuery) ([]*models.Shipment, int64, error)
	Insights(ctx context.Context) (*pgshipments.InsightsData, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo        Repository
	cache       cache.BytesCache
	producer    Publisher
	topic       string
	uploadDir   string
	insightsTTL time.Duration
}

func New(repo Repository, c cache.BytesCache, producer Publisher, topic, uploadDir string, insightsTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		cache:       c,
		producer:    producer,
		topic:       topic,
		uploadDir:   uploadDir,
		insightsTTL: insightsTTL,
	}
}

// UploadCSV spools the uploaded stream to the upload dir, runs the ingestion
// pipeline over it and removes the spooled file in every outcome. The batch
// writer failing aborts the run; no partial summary is returned.
func (s *Service) UploadCSV(ctx context.Context, src io.Reader, originalName string) (ingest.Summary, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return ingest.Summary{}, errors.Wrap(err, "create upload dir")
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+"_"+filepath.Base(originalName))
	f, err := os.Create(path)
	if err != nil {
		return ingest.Summary{}, errors.Wrap(err, "create upload file")
	}
	defer func() { _ = os.Remove(path) }()

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return ingest.Summary{}, errors.Wrap(err, "spool upload")
	}
	if err := f.Close(); err != nil {
		return ingest.Summary{}, errors.Wrap(err, "close upload file")
	}

	in, err := os.Open(path)
	if err != nil {
		return ingest.Summary{}, errors.Wrap(err, "open upload file")
	}
	defer func() { _ = in.Close() }()

	sum, err := ingest.NewPipeline(s.repo).Ingest(ctx, in)
	if err != nil {
		return ingest.Summary{}, err
	}

	// Инвалидируем кэш сводки: данные в БД изменились.
	if s.cache != nil && s.insightsTTL > 0 {
		if err := s.cache.Del(ctx, insightsKey); err != nil {
			slog.Warn("insights cache invalidation failed", "err", err)
		}
	}

	if s.producer != nil {
		msg := messages.IngestCompleted{
			Path:        originalName,
			Processed:   sum.Processed,
			Skipped:     sum.Skipped,
			CompletedAt: time.Now().UTC(),
		}
		b, _ := json.Marshal(msg)
		if err := s.producer.Publish(ctx, s.topic, []byte(originalName), b); err != nil {
			// Best effort: the upload itself succeeded.
			slog.Warn("publish ingest event failed", "err", err)
		}
	}

	return sum, nil
}

type Insights struct {
	TotalShipments       int64                          `json:"total_shipments"`
	TotalVolume          int64                          `json:"total_volume"`
	WarehouseUtilization float64                        `json:"warehouse_utilization"`
	GroupedShipments     []pgshipments.DestinationGroup `json:"grouped_shipments"`
	UpcomingDepartures   []*models.Shipment             `json:"upcoming_departures"`
	ReceivedByCarrier    []pgshipments.CarrierDayCount  `json:"received_by_carrier"`
	VolumeByMode         []pgshipments.ModeVolume       `json:"volume_by_mode"`
}

// Insights отдаёт сводку для дашборда.
// Для простоты делаем "лучшее усилие": кэш не обязан быть всегда.
func (s *Service) Insights(ctx context.Context) (*Insights, error) {
	if s.cache != nil && s.insightsTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, insightsKey); err == nil && ok {
			var out Insights
			if json.Unmarshal(b, &out) == nil {
				return &out, nil
			}
		}
	}
	return s.RefreshInsights(ctx)
}

// RefreshInsights recomputes the summary from the database and rewrites the
// cache entry. Also invoked by the ingest-event consumer to warm the cache.
func (s *Service) RefreshInsights(ctx context.Context) (*Insights, error) {
	data, err := s.repo.Insights(ctx)
	if err != nil {
		return nil, err
	}

	util := float64(data.TotalVolume) / WarehouseCapacity * 100
	out := &Insights{
		TotalShipments:       data.TotalShipments,
		TotalVolume:          data.TotalVolume,
		WarehouseUtilization: math.Round(util*100) / 100,
		GroupedShipments:     data.GroupedShipments,
		UpcomingDepartures:   data.UpcomingDepartures,
		ReceivedByCarrier:    data.ReceivedByCarrier,
		VolumeByMode:         data.VolumeByMode,
	}
	if out.GroupedShipments == nil {
		out.GroupedShipments = []pgshipments.DestinationGroup{}
	}
	if out.UpcomingDepartures == nil {
		out.UpcomingDepartures = []*models.Shipment{}
	}
	if out.ReceivedByCarrier == nil {
		out.ReceivedByCarrier = []pgshipments.CarrierDayCount{}
	}
	if out.VolumeByMode == nil {
		out.VolumeByMode = []pgshipments.ModeVolume{}
	}

	if s.cache != nil && s.insightsTTL > 0 {
		b, _ := json.Marshal(out)
		_ = s.cache.Set(ctx, insightsKey, b, s.insightsTTL)
	}
	return out, nil
}

type Page struct {
	Data     []*models.Shipment `json:"data"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
	LastPage int                `json:"last_page"`
}

func (s *Service) ListShipments(ctx context.Context, q pgshipments.ListQuery) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	data, total, err := s.repo.ListShipments(ctx, q)
	if err != nil {
		return nil, err
	}

	last := int(total+pgshipments.PageSize-1) / pgshipments.PageSize
	if last < 1 {
		last = 1
	}
	return &Page{
		Data:     data,
		Total:    total,
		Page:     q.Page,
		PerPage:  pgshipments.PageSize,
		LastPage: last,
	}, nil
}

// GetShipment returns (nil, nil) when the id is unknown.
func (s *Service) GetShipment(ctx context.Context, shipmentID int64) (*models.Shipment, error) {
	if shipmentID <= 0 {
		return nil, errors.New("shipmentId is required")
	}
	return s.repo.GetShipment(ctx, shipmentID)
}
