// Package storage provides the byte store that backs simulated physical
// memory.
package storage

import (
	"errors"
	"fmt"
)

// ErrBeyondCapacity is returned when an access touches an address at or above
// the capacity of the storage.
var ErrBeyondCapacity = errors.New("accessing address beyond the storage capacity")

// A Storage keeps the data of the simulated physical memory.
//
// The storage manages the data in units. A unit is only allocated the first
// time an address inside it is touched, so a large but sparsely used memory
// costs little. Untouched bytes read as zero.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// New creates a storage with the specified capacity, organized in units of
// unitSize bytes.
func New(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("unit size must be positive")
	}

	return &Storage{
		unitSize: unitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of addressable bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// NumAllocatedUnits returns how many units have been touched.
func (s *Storage) NumAllocatedUnits() int {
	return len(s.data)
}

func (s *Storage) mustBeInRange(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return fmt.Errorf("%w: 0x%x+%d, capacity %d",
			ErrBeyondCapacity, address, length, s.capacity)
	}

	return nil
}

func (s *Storage) createOrGetUnit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns length bytes starting from the address.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	if err := s.mustBeInRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := min(length-dataOffset, baseAddr+s.unitSize-currAddr)

		if unit, ok := s.data[baseAddr]; ok {
			copy(res[dataOffset:dataOffset+lenToRead],
				unit[inUnitAddr:inUnitAddr+lenToRead])
		}

		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write stores the data starting from the address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.mustBeInRange(address, length); err != nil {
		return err
	}

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		unit := s.createOrGetUnit(currAddr)
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := min(length-dataOffset, baseAddr+s.unitSize-currAddr)

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])

		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}

// ReadByteAt returns the byte at the address.
func (s *Storage) ReadByteAt(address uint64) (byte, error) {
	if err := s.mustBeInRange(address, 1); err != nil {
		return 0, err
	}

	baseAddr, inUnitAddr := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		return 0, nil
	}

	return unit[inUnitAddr], nil
}

// WriteByteAt stores a byte at the address.
func (s *Storage) WriteByteAt(address uint64, value byte) error {
	if err := s.mustBeInRange(address, 1); err != nil {
		return err
	}

	_, inUnitAddr := s.parseAddress(address)
	s.createOrGetUnit(address)[inUnitAddr] = value

	return nil
}
