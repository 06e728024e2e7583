package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/edirooss/redisd/internal/command"
	"github.com/edirooss/redisd/internal/env"
	"github.com/edirooss/redisd/internal/pubsub"
	"github.com/edirooss/redisd/internal/store"
	"github.com/edirooss/redisd/internal/txn"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidwall/redcon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Custom Gin middleware that logs using Zap
func ZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func newZapLogger(level string) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		logConfig.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zap.Must(logConfig.Build())
}

// connCtx is what ConnState lives behind in a redcon.Conn's Context slot:
// the dispatcher's per-connection state, plus a once-guard so the pub/sub
// write pump is started exactly once per connection, the first time it
// subscribes to anything.
type connCtx struct {
	cs       *command.ConnState
	pumpOnce sync.Once
}

func main() {
	log := newZapLogger(env.LogLevel())
	defer log.Sync()
	log = log.Named("main")

	txnMgr := txn.NewManager()
	st := store.New(txnMgr)
	ps := pubsub.New()
	disp := command.New(st, txnMgr, ps, log)

	maxClients := env.MaxClients()
	var clientCount int64
	var clientMu sync.Mutex

	handler := func(conn redcon.Conn, cmd redcon.Command) {
		cc := conn.Context().(*connCtx)
		disp.Execute(conn, cc.cs, cmd.Args)
		if cc.cs.Sub != nil {
			cc.pumpOnce.Do(func() {
				dconn := conn.Detach()
				go runSubscriberConn(dconn, cc.cs, disp, log)
			})
		}
	}

	accept := func(conn redcon.Conn) bool {
		clientMu.Lock()
		if clientCount >= int64(maxClients) {
			clientMu.Unlock()
			log.Warn("rejecting connection: too many clients", zap.String("addr", conn.RemoteAddr()))
			return false
		}
		clientCount++
		clientMu.Unlock()

		conn.SetContext(&connCtx{cs: command.NewConnState(uuid.NewString())})
		return true
	}

	closed := func(conn redcon.Conn, err error) {
		clientMu.Lock()
		clientCount--
		clientMu.Unlock()

		cc, ok := conn.Context().(*connCtx)
		if !ok {
			return
		}
		if cc.cs.Sub != nil {
			ps.Disconnect(cc.cs.Sub)
		}
		txnMgr.Unwatch(cc.cs.Txn)
		if err != nil && !errors.Is(err, redcon.ErrDetached) {
			log.Debug("connection closed", zap.String("addr", conn.RemoteAddr()), zap.Error(err))
		}
	}

	srv := redcon.NewServerNetwork("tcp", env.Addr(), handler, accept, closed)
	httpSrv := newAdminServer(log, st, &clientCount, &clientMu)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// g bootstraps the RESP listener, the admin HTTP listener, and the
	// signal-triggered shutdown as three cooperating goroutines: the first
	// of them to return a non-nil error cancels gctx for the rest via
	// errgroup.WithContext, so a crashed listener tears down its sibling
	// instead of leaking it.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("running RESP server", zap.String("addr", env.Addr()))
		if err := srv.ListenAndServe(); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("running admin HTTP server", zap.String("addr", env.HTTPAddr()))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = srv.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server failed", zap.Error(err))
	}
}

// runSubscriberConn takes over a connection once it has subscribed to
// anything: dconn keeps reading further SUBSCRIBE/UNSUBSCRIBE/PING/QUIT
// commands on its own goroutine (replayed through the same Dispatcher, so
// a subscribed connection can still issue any command Redis allows it
// to), while this goroutine drains the subscription's queue and pushes
// "message"/"pmessage" frames. writeMu guards dconn's write buffer since
// both goroutines flush onto it.
func runSubscriberConn(dconn redcon.DetachedConn, cs *command.ConnState, disp *command.Dispatcher, log *zap.Logger) {
	defer dconn.Close()

	var writeMu sync.Mutex
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			cmd, err := dconn.ReadCommand()
			if err != nil {
				return
			}
			if len(cmd.Args) == 0 {
				continue
			}
			writeMu.Lock()
			if strings.EqualFold(string(cmd.Args[0]), "QUIT") {
				dconn.WriteString("OK")
				dconn.Flush()
				writeMu.Unlock()
				return
			}
			disp.Execute(dconn, cs, cmd.Args)
			if err := dconn.Flush(); err != nil {
				writeMu.Unlock()
				return
			}
			writeMu.Unlock()
		}
	}()

	for {
		select {
		case msg, ok := <-cs.Sub.Out():
			if !ok {
				return
			}
			writeMu.Lock()
			writePubSubMessage(dconn, msg)
			if err := dconn.Flush(); err != nil {
				writeMu.Unlock()
				return
			}
			writeMu.Unlock()
		case <-done:
			return
		}
	}
}

func writePubSubMessage(w redcon.DetachedConn, msg pubsub.Message) {
	if msg.Kind == "pmessage" {
		w.WriteArray(4)
		w.WriteBulkString("pmessage")
		w.WriteBulkString(msg.Pattern)
		w.WriteBulkString(msg.Channel)
		w.WriteBulk(msg.Payload)
		return
	}
	w.WriteArray(3)
	w.WriteBulkString("message")
	w.WriteBulkString(msg.Channel)
	w.WriteBulk(msg.Payload)
}

func newAdminServer(log *zap.Logger, st *store.Store, clientCount *int64, clientMu *sync.Mutex) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ZapLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", func(c *gin.Context) {
		clientMu.Lock()
		clients := *clientCount
		clientMu.Unlock()
		c.String(http.StatusOK,
			"# HELP redisd_connected_clients Currently connected RESP clients.\n"+
				"# TYPE redisd_connected_clients gauge\n"+
				"redisd_connected_clients %d\n"+
				"# HELP redisd_db_keys Total keys across the keyspace.\n"+
				"# TYPE redisd_db_keys gauge\n"+
				"redisd_db_keys %d\n",
			clients, st.DBSize())
	})

	return &http.Server{
		Addr:           env.HTTPAddr(),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}
}
