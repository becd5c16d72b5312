// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux || simulator
// +build !linux simulator

package queueengine

import (
	"context"
	"sync"

	"grimm.is/moonlink/internal/errors"
)

// SimVerdict records one verdict issued against a SimProvider, for
// assertions in tests.
type SimVerdict struct {
	ID      uint32
	Verdict Verdict
	Mark    uint32
	Payload []byte
}

// SimProvider is an in-memory Provider used by tests and on non-Linux
// development machines, modeled on the kernel package's own simulator
// split between a real Linux backend and a fake.
type SimProvider struct {
	mu       sync.Mutex
	opened   bool
	handler  PacketHandler
	verdicts []SimVerdict
}

// NewSimProvider builds a SimProvider.
func NewSimProvider() *SimProvider {
	return &SimProvider{}
}

func (p *SimProvider) Open(cfg ProviderConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = true
	return nil
}

func (p *SimProvider) Register(ctx context.Context, handler PacketHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.opened {
		return errors.New(errors.KindKernelQueue, "queueengine: Register called before Open")
	}
	p.handler = handler
	return nil
}

// Deliver feeds a packet into the registered handler, as the kernel would.
// It is a no-op if no handler has been registered yet.
func (p *SimProvider) Deliver(id uint32, payload []byte, mark uint32) {
	p.mu.Lock()
	handler := p.handler
	p.mu.Unlock()
	if handler == nil {
		return
	}
	handler(id, payload, mark)
}

func (p *SimProvider) SetVerdict(id uint32, verdict Verdict, mark uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verdicts = append(p.verdicts, SimVerdict{ID: id, Verdict: verdict, Mark: mark})
	return nil
}

func (p *SimProvider) SetVerdictModified(id uint32, verdict Verdict, mark uint32, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := append([]byte(nil), payload...)
	p.verdicts = append(p.verdicts, SimVerdict{ID: id, Verdict: verdict, Mark: mark, Payload: cp})
	return nil
}

// Verdicts returns every verdict issued so far, in issue order.
func (p *SimProvider) Verdicts() []SimVerdict {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SimVerdict, len(p.verdicts))
	copy(out, p.verdicts)
	return out
}

func (p *SimProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = false
	return nil
}
