package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/progreso-dashboard/internal/service"
	"github.com/noah-isme/progreso-dashboard/pkg/config"
)

func TestNewAuditServiceDisabledReturnsNoDatabase(t *testing.T) {
	cfg := &config.Config{Imports: config.ImportsConfig{AuditEnabled: false}}

	svc, db := newAuditService(context.Background(), cfg, service.NewMetricsService(), zap.NewNop())

	assert.Nil(t, db)
	assert.False(t, svc.Enabled())
}

func TestNewAuditServiceUnreachableDatabaseReturnsNoHandle(t *testing.T) {
	cfg := &config.Config{
		Imports:  config.ImportsConfig{AuditEnabled: true, AuditWorkers: 1},
		Database: config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "audit", Name: "audit"},
	}

	svc, db := newAuditService(context.Background(), cfg, service.NewMetricsService(), zap.NewNop())

	assert.Nil(t, db)
	assert.False(t, svc.Enabled())
}
