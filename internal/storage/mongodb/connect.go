// Package mongodb implements the repositories and the session store over a
// MongoDB deployment (collections systemUsers, roles, oauthTokens,
// oauthRefreshTokens, systemLogs).
package mongodb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/config"
)

const healthCheckInterval = 30 * time.Second

// Connect is the single connection factory. All connection behaviour comes
// from the explicit options struct.
//
// onDisconnect is invoked from the health-check path whenever a ping fails.
// Pass nil to skip health monitoring.
func Connect(ctx context.Context, opts config.DatabaseOptions, onDisconnect func(error)) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)

	if opts.Username != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}

	if opts.TLSEnabled {
		tlsConfig, err := buildTLSConfig(opts)
		if err != nil {
			return nil, errors.Wrap(err, "[mongodb.Connect] tls config")
		}
		clientOpts.SetTLSConfig(tlsConfig)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "[mongodb.Connect] connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "[mongodb.Connect] ping")
	}

	if onDisconnect != nil {
		// Outlive the startup context: the monitor runs for the process lifetime.
		go monitorHealth(context.WithoutCancel(ctx), client, onDisconnect)
	}

	return client, nil
}

func buildTLSConfig(opts config.DatabaseOptions) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: opts.AllowInvalidCerts,
	}

	if opts.CAFilePath != "" {
		caPEM, err := os.ReadFile(opts.CAFilePath)
		if err != nil {
			return nil, errors.Wrap(err, "read CA file")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, errors.New("CA file contains no usable certificates")
		}
		tlsConfig.RootCAs = pool
	}

	if opts.CertFilePath != "" {
		// The certificate file carries both the client certificate and its key.
		cert, err := tls.LoadX509KeyPair(opts.CertFilePath, opts.CertFilePath)
		if err != nil {
			return nil, errors.Wrap(err, "load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func monitorHealth(ctx context.Context, client *mongo.Client, onDisconnect func(error)) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := client.Ping(pingCtx, readpref.Primary())
			cancel()
			if err != nil {
				onDisconnect(err)
			}
		}
	}
}
