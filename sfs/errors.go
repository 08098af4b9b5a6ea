package sfs

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceFailure is returned when a block read or write did not
	// complete. The device's own error is wrapped alongside it.
	ErrDeviceFailure = errors.New("device failure")
	// ErrInvalidArgument covers out-of-range inode or block numbers, corrupt
	// on-disk structures and malformed superblocks.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned for an inode number that is not in use.
	ErrNotFound = errors.New("inode not found")
	// ErrOutOfSpace is returned when a write needs a block and none is free.
	ErrOutOfSpace = errors.New("no free blocks")
	// ErrOutOfInodes is returned by Create when the inode table is full.
	ErrOutOfInodes = errors.New("no free inodes")
	// ErrNotMounted is returned by operations that need a mounted device.
	ErrNotMounted = errors.New("file system not mounted")
	// ErrAlreadyMounted is returned by Format and Mount on a mounted engine.
	ErrAlreadyMounted = errors.New("file system already mounted")
)

func deviceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDeviceFailure, err)
}

func invalidErr(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, a...))
}
