package ise

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Package image header layout.
const (
	// ImageMagic identifies a package image header.
	ImageMagic = 0x27051956

	// ImageHeaderSize is the encoded header length.
	ImageHeaderSize = 64

	// ImageNameLen is the size of the name field.
	ImageNameLen = 32

	// ImageArchPPC is the architecture code of the board CPU.
	ImageArchPPC = 7

	// ImageTypeFilesystem marks a filesystem package.
	ImageTypeFilesystem = 7
)

// PackageDone is the status line that ends a package download.
const PackageDone = "*done*"

// ImageHeader builds the big-endian header sent ahead of package data.
// Checksums, timestamps and addresses are zero. The name is truncated to
// ImageNameLen bytes.
func ImageHeader(name string, size int) ([]byte, error) {
	if size < 0 || uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: package size %d", ErrGeneric, size)
	}
	h := make([]byte, ImageHeaderSize)
	binary.BigEndian.PutUint32(h[0:4], ImageMagic)
	// 4:8 header crc, 8:12 time
	binary.BigEndian.PutUint32(h[12:16], uint32(size))
	// 16:20 load, 20:24 entry, 24:28 data crc, 28 os
	h[29] = ImageArchPPC
	h[30] = ImageTypeFilesystem
	// 31 compression
	copy(h[32:], name)
	return h, nil
}

// SendPackage downloads an update package through channel 0 and relays the
// board's progress lines from channel 1 to status (which may be nil) until
// PackageDone, which is relayed too. Only opened sessions may send
// packages, and channels 0 and 1 must not be open.
//
// Reads on channel 1 follow its timeout, which starts as TimeoutOff.
// Cancelling ctx interrupts a blocked read.
func (s *Session) SendPackage(ctx context.Context, name string, data []byte, status func(string)) error {
	header, err := ImageHeader(name, len(data))
	if err != nil {
		return err
	}

	ch0, ch1, err := s.openPackageChannels(ctx)
	if err != nil {
		return err
	}

	err = s.streamPackage(ctx, ch0, ch1, header, data, status)

	s.mu.Lock()
	for _, id := range []uint8{FirmwareChannel, StatusChannel} {
		if cerr := s.closeChannelLocked(id); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.mu.Unlock()
	return err
}

func (s *Session) openPackageChannels(ctx context.Context) (*channel, *channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, nil, err
	}
	if s.state != StateIdentified {
		return nil, nil, fmt.Errorf("%w: packages need an opened session", ErrGeneric)
	}
	for _, id := range []uint8{FirmwareChannel, StatusChannel} {
		if _, open := s.channels[id]; open {
			return nil, nil, fmt.Errorf("%w: channel %d is open", ErrChannelBusy, id)
		}
	}

	ch1, err := s.openChannelLocked(ctx, StatusChannel)
	if err != nil {
		return nil, nil, err
	}
	ch0, err := s.openChannelLocked(ctx, FirmwareChannel)
	if err != nil {
		s.closeChannelLocked(StatusChannel)
		return nil, nil, err
	}
	return ch0, ch1, nil
}

func (s *Session) streamPackage(ctx context.Context, ch0, ch1 *channel, header, data []byte, status func(string)) error {
	s.logger.Debug("package", "size", len(data))
	if _, err := ch0.conn.Write(header); err != nil {
		return transportError("write package header", err)
	}
	if _, err := ch0.conn.Write(data); err != nil {
		return transportError("write package", err)
	}
	if err := s.backend.ChannelSync(ctx, ch0.conn); err != nil {
		return err
	}

	// The run request may time out on the board side; progress on channel 1
	// is what tells us the package was taken.
	if err := s.backend.RunProgram(ctx); err != nil {
		s.logger.Debug("package: run program", "error", err)
	}

	stop := context.AfterFunc(ctx, func() {
		s.backend.SetTimeout(StatusChannel, TimeoutForce)
	})
	defer stop()

	for {
		l, err := ch1.buf.ReadLine()
		if err != nil {
			if errors.Is(err, ErrChannelTimeout) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.logger.Debug("package status", "text", l.Text)
		if status != nil {
			status(l.Text)
		}
		if l.Text == PackageDone {
			return nil
		}
	}
}
