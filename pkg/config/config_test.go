package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsHalvedSweepInterval(t *testing.T) {
	c := &GatewayConfig{GatewayPort: 5000, HeartbeatTimeout: 30 * time.Second, SweepInterval: 15 * time.Second}
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsSweepIntervalAboveHalf(t *testing.T) {
	c := &GatewayConfig{GatewayPort: 5000, HeartbeatTimeout: 30 * time.Second, SweepInterval: 16 * time.Second}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNonPositivePort(t *testing.T) {
	c := &GatewayConfig{GatewayPort: 0, HeartbeatTimeout: 30 * time.Second, SweepInterval: 5 * time.Second}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsZeroHeartbeatTimeout(t *testing.T) {
	c := &GatewayConfig{GatewayPort: 5000, HeartbeatTimeout: 0, SweepInterval: 5 * time.Second}
	assert.Error(t, c.Validate())
}

func TestLoadGatewayConfigDefaults(t *testing.T) {
	c := LoadGatewayConfig()
	assert.Equal(t, 5000, c.GatewayPort)
	assert.Equal(t, 30*time.Second, c.HeartbeatTimeout)
	assert.Equal(t, 5*time.Second, c.SweepInterval)
	assert.NoError(t, c.Validate())
}

func TestLoadWorkerConfigDefaults(t *testing.T) {
	c := LoadWorkerConfig()
	assert.Equal(t, "http://localhost:5000", c.GatewayAddr)
	assert.Equal(t, 1.0, c.WorkerCPULimit)
	assert.Equal(t, 5*time.Second, c.HeartbeatInterval)
}
