package resolver

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/lattice-dns/dnscore/dnsmsg"
)

// DiskCache persists whole resolved messages across restarts, keyed by
// (name, type, class), backed by a pebble LSM store. It sits in front
// of a RecordCache as a warm-start source; TTL enforcement still
// happens in memory, since pebble has no notion of record expiry.
type DiskCache struct {
	db *pebble.DB
}

// OpenDiskCache opens (creating if absent) a pebble store at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("resolver: open disk cache: %w", err)
	}
	return &DiskCache{db: db}, nil
}

func (d *DiskCache) Close() error {
	return d.db.Close()
}

func diskKey(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) []byte {
	s := name.String()
	key := make([]byte, 0, len(s)+5)
	key = append(key, byte(class>>8), byte(class))
	key = append(key, byte(typ>>8), byte(typ))
	key = append(key, '|')
	key = append(key, s...)
	return key
}

// Store persists msg under (name, type, class), overwriting any
// previous entry.
func (d *DiskCache) Store(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, msg *dnsmsg.Message) error {
	wire, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return d.db.Set(diskKey(name, typ, class), wire, pebble.Sync)
}

// Load returns the last message persisted for (name, type, class), or
// (nil, false, nil) if there is none. The caller re-derives freshness
// from the decoded message's own TTLs; DiskCache never deletes stale
// entries on its own.
func (d *DiskCache) Load(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (*dnsmsg.Message, bool, error) {
	wire, closer, err := d.db.Get(diskKey(name, typ, class))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	msg := &dnsmsg.Message{}
	if err := msg.UnmarshalBinary(wire); err != nil {
		return nil, false, err
	}
	return msg, true, nil
}

// Delete removes any persisted entry for (name, type, class).
func (d *DiskCache) Delete(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) error {
	return d.db.Delete(diskKey(name, typ, class), pebble.Sync)
}
