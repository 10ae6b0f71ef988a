package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"posales/backend/internal/cache"
	"posales/backend/internal/catalog"
	"posales/backend/internal/domain"
	"posales/backend/internal/order"
	"posales/backend/internal/provider"
)

// Session is one open order form: its catalog, directories, lines and PO
// header. Every operation on it holds mu.
type Session struct {
	mu sync.Mutex

	id           string
	catalog      *catalog.Index
	columns      catalog.ColumnMap
	columnNotice string
	sales        []domain.Salesperson
	outlets      []domain.Outlet
	lines        *order.Collection
	header       domain.POHeader
	poCounter    int
	loadErrs     map[string]string

	expiresAt atomic.Int64
}

func (sess *Session) touch(now time.Time, ttl time.Duration) {
	sess.expiresAt.Store(now.Add(ttl).UnixNano())
}

func (sess *Session) expired(now time.Time) bool {
	return now.UnixNano() > sess.expiresAt.Load()
}

func (sess *Session) currentStock(name string) (int, bool) {
	p, ok := sess.catalog.Lookup(name)
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

func (sess *Session) loadError() string {
	if len(sess.loadErrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sess.loadErrs))
	for _, source := range []string{"sales", "outlets", "products"} {
		if msg, ok := sess.loadErrs[source]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// OpenSession creates a form session and loads its data. Load failures do not
// fail the call; they are reported in the view and can be retried with
// ReloadData.
func (s *Service) OpenSession(ctx context.Context) (domain.SessionView, error) {
	now := s.clock()
	sess := &Session{
		id:        uuid.NewString(),
		catalog:   catalog.NewIndex(s.opts.SearchLimit),
		lines:     order.NewCollection(),
		poCounter: 1,
		loadErrs:  map[string]string{},
	}
	sess.header = s.freshHeader(ctx, sess, now)
	sess.touch(now, s.opts.SessionTTL)

	s.loadAll(ctx, sess)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.metrics.SessionsOpened.Inc()
	log.Printf("[service] session opened session=%s products=%d", sess.id, sess.catalog.Len())

	return s.view(sess), nil
}

func (s *Service) ReloadData(ctx context.Context, id string) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.loadAll(ctx, sess)
	return s.view(sess), nil
}

func (s *Service) View(_ context.Context, id string) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

func (s *Service) Directory(_ context.Context, id string) (domain.DirectoryResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.DirectoryResponse{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return domain.DirectoryResponse{
		Sales:          append([]domain.Salesperson{}, sess.sales...),
		Outlets:        append([]domain.Outlet{}, sess.outlets...),
		PaymentMethods: s.PaymentMethods(),
	}, nil
}

// loadAll fetches sales, outlets and products concurrently. Each source that
// loads replaces its previous data; each that fails keeps it and records an
// error.
func (s *Service) loadAll(ctx context.Context, sess *Session) {
	var (
		g       errgroup.Group
		sales   []domain.Salesperson
		outlets []domain.Outlet
		table   domain.CatalogTable
		errs    [3]error
	)
	g.Go(func() error {
		pctx, cancel := s.providerContext(ctx)
		defer cancel()
		sales, errs[0] = s.provider.GetSales(pctx)
		return errs[0]
	})
	g.Go(func() error {
		pctx, cancel := s.providerContext(ctx)
		defer cancel()
		outlets, errs[1] = s.provider.GetOutlets(pctx)
		return errs[1]
	})
	g.Go(func() error {
		table, errs[2] = s.fetchCatalog(ctx)
		return errs[2]
	})
	if err := g.Wait(); err != nil {
		log.Printf("[service] WARN: data load incomplete session=%s: %v", sess.id, err)
	}

	if errs[0] == nil {
		sess.sales = sales
		delete(sess.loadErrs, "sales")
	} else {
		sess.loadErrs["sales"] = "Gagal memuat data sales: " + publicError(errs[0])
	}
	if errs[1] == nil {
		sess.outlets = outlets
		delete(sess.loadErrs, "outlets")
	} else {
		sess.loadErrs["outlets"] = "Gagal memuat data outlet: " + publicError(errs[1])
	}
	if errs[2] == nil {
		errs[2] = s.applyCatalog(sess, table)
	}
	if errs[2] == nil {
		delete(sess.loadErrs, "products")
	} else {
		s.metrics.CatalogLoadErrs.Inc()
		sess.loadErrs["products"] = "Gagal memuat data produk: " + publicError(errs[2])
	}
}

// reloadCatalog refreshes only the products.
func (s *Service) reloadCatalog(ctx context.Context, sess *Session) error {
	table, err := s.fetchCatalog(ctx)
	if err == nil {
		err = s.applyCatalog(sess, table)
	}
	if err != nil {
		s.metrics.CatalogLoadErrs.Inc()
		sess.loadErrs["products"] = "Gagal memuat data produk: " + publicError(err)
		return err
	}
	delete(sess.loadErrs, "products")
	return nil
}

func (s *Service) fetchCatalog(ctx context.Context) (domain.CatalogTable, error) {
	cached, ok, err := s.cache.Get(ctx, cache.CatalogKey)
	if err != nil {
		log.Printf("[service] WARN: catalog cache read failed: %v", err)
	}
	if ok && cached != nil {
		return *cached, nil
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()
	table, err := s.provider.GetProducts(pctx)
	if err != nil {
		return domain.CatalogTable{}, err
	}
	if err := s.cache.Set(ctx, cache.CatalogKey, &table, s.opts.CatalogCacheTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed: %v", err)
	}
	return table, nil
}

func (s *Service) applyCatalog(sess *Session, table domain.CatalogTable) error {
	report, err := sess.catalog.LoadTable(table)
	if err != nil {
		return err
	}
	sess.columns = report.Columns
	sess.columnNotice = ""
	if report.Columns.NameFallback {
		sess.columnNotice = "Kolom NAMA PRODUK tidak ditemukan, memakai kolom pertama"
		log.Printf("[service] WARN: product name column not found session=%s, using column 0", sess.id)
	}
	if report.Skipped > 0 {
		log.Printf("[service] skipped %d product rows without a name session=%s", report.Skipped, sess.id)
	}
	s.metrics.CatalogSize.Set(float64(report.Loaded))
	return nil
}

func (s *Service) freshHeader(ctx context.Context, sess *Session, now time.Time) domain.POHeader {
	return domain.POHeader{PONumber: provider.PONumber(s.opts.POPrefix, now, s.nextSequence(ctx, sess, now))}
}

// nextSequence is the session counter, raised past the numbers the provider
// already holds for the day. Sessions share the provider, so the counter
// alone would reuse numbers saved by other sessions.
func (s *Service) nextSequence(ctx context.Context, sess *Session, now time.Time) int {
	seq := sess.poCounter
	sequencer, ok := s.provider.(provider.POSequencer)
	if !ok {
		return seq
	}
	pctx, cancel := s.providerContext(ctx)
	defer cancel()
	next, err := sequencer.NextPOSequence(pctx, s.opts.POPrefix, now)
	if err != nil {
		log.Printf("[service] WARN: po sequence lookup failed session=%s: %v", sess.id, err)
		return seq
	}
	return max(seq, next)
}

// publicError hides transport detail behind the provider's category.
func publicError(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	switch {
	case errors.Is(err, catalog.ErrEmptyTable):
		return "sheet produk kosong"
	case errors.Is(err, context.DeadlineExceeded):
		return "waktu habis"
	default:
		return providerMessage(err)
	}
}
