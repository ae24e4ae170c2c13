package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/pkg/email"
	"github.com/osvaldobrewjaria/fazumclube/pkg/metrics"
)

// utf8BOM makes spreadsheet tools open the export as UTF-8
const utf8BOM = "\uFEFF"

var exportHeader = []string{
	"Nome", "Email", "Telefone", "Plano",
	"Rua", "Número", "Complemento", "Bairro", "Cidade", "Estado", "CEP",
	"Status", "Código de rastreio", "Link de rastreio", "Observações", "Enviado em", "Entregue em",
}

type DeliveryService struct {
	deliveries          repository.DeliveryRepository
	subs                repository.SubscriptionRepository
	emails              email.EmailService
	metrics             *metrics.Collector
	trackingURLTemplate string
	logger              *zap.Logger
	now                 func() time.Time
}

type DeliveryPeriod struct {
	Month int `json:"month" query:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" query:"year" validate:"required,min=2000,max=2100"`
}

type UpdateDeliveryRequest struct {
	DeliveryPeriod
	domain.DeliveryUpdate
}

type BulkDeliveryRequest struct {
	SubscriptionIDs []uuid.UUID `json:"subscriptionIds" validate:"required,min=1,max=500"`
	DeliveryPeriod
	domain.DeliveryUpdate
}

// BulkDeliveryResult reports the outcome for one subscription of a bulk update
type BulkDeliveryResult struct {
	SubscriptionID uuid.UUID        `json:"subscriptionId"`
	Success        bool             `json:"success"`
	Delivery       *domain.Delivery `json:"delivery,omitempty"`
	Error          string           `json:"error,omitempty"`
}

func NewDeliveryService(
	deliveries repository.DeliveryRepository,
	subs repository.SubscriptionRepository,
	emails email.EmailService,
	collector *metrics.Collector,
	trackingURLTemplate string,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		deliveries:          deliveries,
		subs:                subs,
		emails:              emails,
		metrics:             collector,
		trackingURLTemplate: trackingURLTemplate,
		logger:              logger.Named("delivery"),
		now:                 time.Now,
	}
}

func (p DeliveryPeriod) validate() error {
	if p.Month < 1 || p.Month > 12 {
		return errors.NotValidf("month %d", p.Month)
	}
	if p.Year < 2000 || p.Year > 2100 {
		return errors.NotValidf("year %d", p.Year)
	}
	return nil
}

// UpdateStatus creates or updates the delivery of a subscription for one
// month. Moving to SHIPPED sends the subscriber a shipment email.
func (s *DeliveryService) UpdateStatus(ctx context.Context, tc domain.TenantContext, subscriptionID uuid.UUID, period DeliveryPeriod, upd domain.DeliveryUpdate) (*domain.Delivery, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, errors.NotValidf("delivery status %q", *upd.Status)
	}

	sub, err := s.subs.GetDetails(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.TenantID != tc.ID {
		return nil, errors.NotFoundf("subscription")
	}

	now := s.now()
	d, err := s.deliveries.Get(ctx, subscriptionID, period.Month, period.Year)
	if errors.Is(err, errors.NotFound) {
		d = domain.NewDelivery(tc.ID, subscriptionID, period.Month, period.Year, now)
	} else if err != nil {
		return nil, err
	}

	shipped := d.Apply(upd, now)
	if shipped && d.TrackingURL == nil && d.TrackingCode != nil && *d.TrackingCode != "" {
		trackingURL := s.trackingURL(*d.TrackingCode)
		d.TrackingURL = &trackingURL
	}

	if err := s.deliveries.Upsert(ctx, d); err != nil {
		return nil, err
	}
	s.metrics.RecordDeliveryUpdate(string(d.Status))

	if shipped {
		s.sendShipment(ctx, tc, sub, d)
	}
	return d, nil
}

// BulkUpdate applies the same update to each subscription independently. A
// failure for one subscription does not affect the others.
func (s *DeliveryService) BulkUpdate(ctx context.Context, tc domain.TenantContext, req BulkDeliveryRequest) []BulkDeliveryResult {
	results := make([]BulkDeliveryResult, 0, len(req.SubscriptionIDs))
	for _, id := range req.SubscriptionIDs {
		d, err := s.UpdateStatus(ctx, tc, id, req.DeliveryPeriod, req.DeliveryUpdate)
		if err != nil {
			s.logger.Warn("bulk delivery item failed", zap.String("subscription_id", id.String()), zap.Error(err))
			results = append(results, BulkDeliveryResult{SubscriptionID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkDeliveryResult{SubscriptionID: id, Success: true, Delivery: d})
	}
	return results
}

func (s *DeliveryService) trackingURL(code string) string {
	if strings.Contains(s.trackingURLTemplate, "%s") {
		return fmt.Sprintf(s.trackingURLTemplate, url.QueryEscape(code))
	}
	return s.trackingURLTemplate + url.QueryEscape(code)
}

func (s *DeliveryService) sendShipment(ctx context.Context, tc domain.TenantContext, sub *domain.SubscriptionDetails, d *domain.Delivery) {
	shipment := email.Shipment{
		Name:     sub.UserName,
		ClubName: tc.Name,
		Month:    d.ReferenceMonth,
		Year:     d.ReferenceYear,
	}
	if d.TrackingCode != nil {
		shipment.TrackingCode = *d.TrackingCode
	}
	if d.TrackingURL != nil {
		shipment.TrackingURL = *d.TrackingURL
	}

	err := s.emails.SendShipmentEmail(ctx, sub.UserEmail, shipment)
	s.metrics.RecordEmail("shipment", err)
	if err != nil {
		s.logger.Error("sending shipment email", zap.String("subscription_id", sub.ID.String()), zap.Error(err))
	}
}

// ListForPeriod lists every active subscriber with the delivery of the month
func (s *DeliveryService) ListForPeriod(ctx context.Context, tc domain.TenantContext, period DeliveryPeriod) ([]*domain.DeliveryRow, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	return s.deliveries.ListForPeriod(ctx, tc.ID, period.Month, period.Year)
}

func (s *DeliveryService) ListMine(ctx context.Context, tc domain.TenantContext, userID uuid.UUID) ([]*domain.Delivery, error) {
	return s.deliveries.ListByUser(ctx, tc.ID, userID)
}

// Export writes the month's delivery list as a semicolon separated CSV
// prefixed with a UTF-8 byte order mark
func (s *DeliveryService) Export(ctx context.Context, tc domain.TenantContext, period DeliveryPeriod, w io.Writer) error {
	rows, err := s.ListForPeriod(ctx, tc, period)
	if err != nil {
		return err
	}
	return WriteDeliveryCSV(w, rows)
}

// WriteDeliveryCSV renders rows with Portuguese headers. Rows without a
// delivery record are exported as PENDING.
func WriteDeliveryCSV(w io.Writer, rows []*domain.DeliveryRow) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return errors.Annotate(err, "writing bom")
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(exportHeader); err != nil {
		return errors.Annotate(err, "writing csv header")
	}

	for _, r := range rows {
		status := domain.DeliveryPending
		if r.Status != nil {
			status = *r.Status
		}
		record := []string{
			r.UserName, r.UserEmail, str(r.Phone), r.PlanName,
			str(r.Street), str(r.Number), str(r.Complement), str(r.District), str(r.City), str(r.State), str(r.ZipCode),
			string(status), str(r.TrackingCode), str(r.TrackingURL), str(r.Notes),
			formatDate(r.ShippedAt), formatDate(r.DeliveredAt),
		}
		if err := cw.Write(record); err != nil {
			return errors.Annotate(err, "writing csv row")
		}
	}

	cw.Flush()
	return errors.Trace(cw.Error())
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
