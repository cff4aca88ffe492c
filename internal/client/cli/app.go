package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/catusdev/catus-client/internal/client/api"
	"github.com/catusdev/catus-client/internal/client/config"
	"github.com/catusdev/catus-client/internal/client/credentials"
	"github.com/catusdev/catus-client/internal/client/ledger"
	"github.com/catusdev/catus-client/internal/client/session"
	"github.com/catusdev/catus-client/internal/client/syncer"
	"github.com/catusdev/catus-client/internal/client/transport"
	"github.com/catusdev/catus-client/internal/logging"
	"github.com/catusdev/catus-client/internal/netx"
	"github.com/catusdev/catus-client/internal/notify"
)

// App owns the wired client: local storage, request pipeline, session and
// sync coordinator, plus the REPL's input reader.
type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	session *session.Manager
	syncer  *syncer.Coordinator
	ledger  *ledger.Store
	client  api.Client
	reader  *bufio.Reader
}

// NewApp wires the full client stack from configuration.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	log := logging.New(os.Stderr, c.Verbose())

	db, err := InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	creds := credentials.NewStore(db, log)
	estimator := ledger.NewFileEstimator(c.DatabasePath, c.StorageQuotaBytes)
	store := ledger.NewStore(db, estimator, log)

	// The session manager and the pipeline reference each other: the
	// pipeline refreshes tokens through the manager and reports terminal
	// 401s back to it. The hook closes over sess before it exists.
	var sess *session.Manager
	pipe := transport.NewPipeline(transport.Options{
		BaseURL:     c.APIBaseURL,
		Timeout:     c.RequestTimeout,
		Credentials: creds,
		Classifier:  &transport.Classifier{Online: netx.NewProbe(c.APIBaseURL).Online},
		Sink: notify.Func(func(message string, severity notify.Severity) {
			fmt.Printf("[%s] %s\n", severity, message)
		}),
		Logger: log,
		OnSessionExpired: func(ctx context.Context) {
			if sess != nil {
				sess.HandleSessionExpired()
			}
		},
	})

	client := api.NewRESTClient(pipe)
	sess = session.NewManager(client, creds, pipe, log)
	pipe.SetRefresher(sess)

	return &App{
		config:  c,
		log:     log,
		db:      db,
		session: sess,
		syncer:  syncer.NewCoordinator(client, store, log),
		ledger:  store,
		client:  client,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores the session and hands control to the REPL. Blocks until the
// user exits.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	snap := a.session.Bootstrap(ctx)
	if snap.State == session.StateAuthenticated && snap.User != nil {
		printlnFn(fmt.Sprintf("Welcome back, %s!", snap.User.Nickname))
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().State == session.StateAuthenticated
}

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	if snap.State == session.StateAuthenticated && snap.User != nil {
		return fmt.Sprintf("(%s)", snap.User.Nickname)
	}
	return ""
}
