// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package queueengine

import (
	"context"
	"time"

	"github.com/florianl/go-nfqueue/v2"
	"golang.org/x/sys/unix"

	"grimm.is/moonlink/internal/errors"
	"grimm.is/moonlink/internal/logging"
)

// LinuxProvider implements Provider on top of the real kernel NFQUEUE via
// github.com/florianl/go-nfqueue/v2.
type LinuxProvider struct {
	nf     *nfqueue.Nfqueue
	logger *logging.Logger
}

// NewLinuxProvider builds a LinuxProvider. Open must be called before Register.
func NewLinuxProvider(logger *logging.Logger) *LinuxProvider {
	if logger == nil {
		logger = logging.WithComponent("queueengine")
	}
	return &LinuxProvider{logger: logger}
}

func (p *LinuxProvider) Open(cfg ProviderConfig) error {
	nfCfg := nfqueue.Config{
		NfQueue:      cfg.QueueNum,
		MaxPacketLen: cfg.MaxPacketLen,
		MaxQueueLen:  1024,
		Copymode:     nfqueue.NfQnlCopyPacket,
		WriteTimeout: 15 * time.Millisecond,
	}

	nf, err := nfqueue.Open(&nfCfg)
	if err != nil {
		return errors.Wrap(err, errors.KindKernelQueue, "queueengine: failed to open nfqueue")
	}
	p.nf = nf

	if cfg.ReceiveBufferBytes > 0 {
		if err := p.setReceiveBuffer(cfg.ReceiveBufferBytes); err != nil {
			p.logger.Warn("queueengine: failed to enlarge receive socket buffer", "error", err, "requested_bytes", cfg.ReceiveBufferBytes)
		}
	}

	return nil
}

// setReceiveBuffer enlarges the underlying netlink socket's receive buffer.
// Mirrors the original's direct setsockopt(fd_, ...) call.
func (p *LinuxProvider) setReceiveBuffer(bytes int) error {
	if p.nf == nil || p.nf.Con == nil {
		return nil
	}
	rc, err := p.nf.Con.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
	}); err != nil {
		return err
	}
	return sockErr
}

func (p *LinuxProvider) Register(ctx context.Context, handler PacketHandler) error {
	fn := func(a nfqueue.Attribute) int {
		if a.PacketID == nil {
			return 0
		}
		id := *a.PacketID

		if a.Payload == nil {
			if err := p.nf.SetVerdict(id, int(VerdictAccept)); err != nil {
				p.logger.Warn("queueengine: accept of payload-less packet failed", "error", err)
			}
			return 0
		}

		var mark uint32
		if a.Mark != nil {
			mark = *a.Mark
		}
		handler(id, *a.Payload, mark)
		return 0
	}

	errFn := func(e error) int {
		if errors.Is(e, unix.ENOBUFS) {
			p.logger.Warn("queueengine: nfqueue receive buffer overflow, packets lost", "error", e)
			return 0
		}
		if errors.Is(e, unix.EINTR) {
			if ctx.Err() != nil {
				return 1
			}
			return 0
		}
		p.logger.Error("queueengine: nfqueue receive failed, stopping receive loop", "error", e)
		return 1
	}

	if err := p.nf.RegisterWithErrorFunc(ctx, fn, errFn); err != nil {
		return errors.Wrap(err, errors.KindKernelQueue, "queueengine: failed to register nfqueue handler")
	}
	return nil
}

func (p *LinuxProvider) SetVerdict(id uint32, verdict Verdict, mark uint32) error {
	if err := p.nf.SetVerdictWithMark(id, int(verdict), int(mark)); err != nil {
		return errors.Wrap(err, errors.KindKernelReceive, "queueengine: set verdict failed")
	}
	return nil
}

func (p *LinuxProvider) SetVerdictModified(id uint32, verdict Verdict, mark uint32, payload []byte) error {
	if err := p.nf.SetVerdictModPacketWithMark(id, int(verdict), int(mark), payload); err != nil {
		return errors.Wrap(err, errors.KindKernelReceive, "queueengine: set modified verdict failed")
	}
	return nil
}

func (p *LinuxProvider) Close() error {
	if p.nf == nil {
		return nil
	}
	if err := p.nf.Close(); err != nil {
		return errors.Wrap(err, errors.KindKernelQueue, "queueengine: close failed")
	}
	return nil
}
