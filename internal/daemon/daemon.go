package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stakeday/stakeday/internal/api"
	"github.com/stakeday/stakeday/internal/app/session"
	"github.com/stakeday/stakeday/internal/domain"
	"github.com/stakeday/stakeday/internal/infra/clock"
	"github.com/stakeday/stakeday/internal/infra/ident"
	"github.com/stakeday/stakeday/internal/infra/logging"
	"github.com/stakeday/stakeday/internal/infra/memstore"
	"github.com/stakeday/stakeday/internal/infra/observability"
	"github.com/stakeday/stakeday/internal/infra/sqlite"
)

// Daemon owns storage, the session store and the journal for one process.
type Daemon struct {
	Config  Config
	Store   *session.Store
	Journal *observability.Journal
	DB      *sqlite.DB // nil with the memory backend

	log *logrus.Entry
}

// New opens storage per cfg and loads the session.
func New(cfg Config, logger logrus.FieldLogger) (*Daemon, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		Config: cfg,
		Journal: observability.NewJournal(observability.JournalConfig{
			Enabled: cfg.Session.JournalSize > 0,
			MaxSize: cfg.Session.JournalSize,
		}),
		log: logging.Component(logger, "daemon"),
	}

	var (
		blobs  domain.BlobStore
		ledger domain.Ledger
	)
	switch cfg.Storage.Backend {
	case "memory":
		blobs = memstore.New()
	default:
		db, err := sqlite.Open(cfg.DataDir())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.DB = db
		blobs, ledger = db, db
	}

	ids := ident.UUID{}
	store, err := session.New(session.Options{
		Repo:           session.NewRepository(blobs, ids, logger),
		Ledger:         ledger,
		Clock:          clock.NewSystem(loc),
		IDs:            ids,
		Journal:        d.Journal,
		Logger:         logger,
		ProofRetention: cfg.Session.ProofRetention,
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}
	d.Store = store

	d.log.WithFields(logrus.Fields{
		"backend":  cfg.Storage.Backend,
		"timezone": loc.String(),
	}).Debug("session loaded")
	return d, nil
}

// Handler builds the HTTP handler for the loaded session.
func (d *Daemon) Handler(logger logrus.FieldLogger) http.Handler {
	srv := api.NewServer(d.Store, logger)
	srv.SetJournal(d.Journal)
	if d.Config.Metrics.Enabled {
		srv.EnableMetrics()
	}
	return srv.Handler()
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (d *Daemon) Serve(ctx context.Context, logger logrus.FieldLogger) error {
	httpSrv := &http.Server{
		Addr:              d.Config.Addr(),
		Handler:           d.Handler(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.log.WithField("addr", httpSrv.Addr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	d.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// Close releases storage.
func (d *Daemon) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
