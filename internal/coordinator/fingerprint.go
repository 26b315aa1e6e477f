package coordinator

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/rewired-gh/quakelens/internal/models"
)

// Fingerprint identifies an event subset independently of its order.
// Each event is hashed on every field, since results such as declustering
// background hand events back; the sorted per-event hashes are hashed again.
func Fingerprint(events []models.CatalogEvent) uint64 {
	hashes := make([]uint64, len(events))
	var d xxhash.Digest
	var buf [8]byte
	for i := range events {
		e := &events[i]
		d.Reset()
		writeString(&d, buf[:], e.ID)
		writeUint64(&d, buf[:], uint64(e.Time.UnixNano()))
		writeUint64(&d, buf[:], math.Float64bits(e.Magnitude))
		writeString(&d, buf[:], e.MagnitudeType)
		writeOptional(&d, buf[:], e.Latitude)
		writeOptional(&d, buf[:], e.Longitude)
		writeOptional(&d, buf[:], e.Depth)
		writeString(&d, buf[:], e.Region)
		if u := e.Uncertainty; u != nil {
			_, _ = d.Write([]byte{1})
			writeOptional(&d, buf[:], u.HorizontalKm)
			writeOptional(&d, buf[:], u.DepthKm)
			writeOptional(&d, buf[:], u.Magnitude)
		} else {
			_, _ = d.Write([]byte{0})
		}
		if e.StationCount != nil {
			_, _ = d.Write([]byte{1})
			writeUint64(&d, buf[:], uint64(*e.StationCount))
		} else {
			_, _ = d.Write([]byte{0})
		}
		writeUint64(&d, buf[:], uint64(len(e.FocalMechanisms)))
		for _, fm := range e.FocalMechanisms {
			for _, p := range []models.NodalPlane{fm.NodalPlane1, fm.NodalPlane2} {
				writeUint64(&d, buf[:], math.Float64bits(p.Strike))
				writeUint64(&d, buf[:], math.Float64bits(p.Dip))
				writeUint64(&d, buf[:], math.Float64bits(p.Rake))
			}
		}
		hashes[i] = d.Sum64()
	}
	slices.Sort(hashes)

	d.Reset()
	writeUint64(&d, buf[:], uint64(len(hashes)))
	for _, h := range hashes {
		writeUint64(&d, buf[:], h)
	}
	return d.Sum64()
}

// writeString is length-prefixed so adjacent strings cannot run together.
func writeString(d *xxhash.Digest, buf []byte, s string) {
	writeUint64(d, buf, uint64(len(s)))
	_, _ = d.WriteString(s)
}

func writeUint64(d *xxhash.Digest, buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
	_, _ = d.Write(buf)
}

func writeOptional(d *xxhash.Digest, buf []byte, v *float64) {
	if v == nil {
		_, _ = d.Write([]byte{0})
		return
	}
	_, _ = d.Write([]byte{1})
	writeUint64(d, buf, math.Float64bits(*v))
}

// ParamHash hashes a parameter struct. Pointers are dereferenced by
// hashstructure, so callers pass normalized values rather than options
// whose nil and zero pointers mean different things.
func ParamHash(params any) (uint64, error) {
	h, err := hashstructure.Hash(params, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to hash parameters: %w", err)
	}
	return h, nil
}

// CacheKey combines a subset fingerprint and a parameter hash.
func CacheKey(fingerprint, params uint64) string {
	return fmt.Sprintf("%016x:%016x", fingerprint, params)
}
