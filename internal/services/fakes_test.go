package services

import (
	"context"
	"iter"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"member2ldap/internal/dto"
	"member2ldap/internal/entities"
	"member2ldap/pkg/config"
	apperrors "member2ldap/pkg/errors"
)

// fakeDirectory - каталог в памяти вместо LDAP-сервера.
type fakeDirectory struct {
	entries map[string]dto.DirectoryEntryDTO
	ops     []string
	bindErr error
	closed  bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{entries: map[string]dto.DirectoryEntryDTO{}}
}

func (d *fakeDirectory) dialer() DirectoryDialer {
	return func(*config.LDAPConfig, *zap.Logger) (LDAPServiceInterface, error) {
		return d, nil
	}
}

func (d *fakeDirectory) Bind(bindDN, password string) error {
	d.ops = append(d.ops, "bind "+bindDN)
	return d.bindErr
}

func (d *fakeDirectory) SearchOneLevel(baseDN, filter string) ([]dto.DirectoryMatchDTO, error) {
	d.ops = append(d.ops, "search "+filter)
	var found []dto.DirectoryMatchDTO
	for dn, e := range d.entries {
		if "(uid="+e.Attributes["uid"][0]+")" == filter && strings.HasSuffix(dn, ","+baseDN) {
			found = append(found, dto.DirectoryMatchDTO{DN: dn, UID: e.Attributes["uid"][0]})
		}
	}
	return found, nil
}

func (d *fakeDirectory) Add(entry dto.DirectoryEntryDTO) error {
	d.ops = append(d.ops, "add "+entry.DN)
	d.entries[entry.DN] = entry
	return nil
}

func (d *fakeDirectory) Delete(dn string) error {
	d.ops = append(d.ops, "delete "+dn)
	delete(d.entries, dn)
	return nil
}

func (d *fakeDirectory) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDirectory) mutations() int {
	n := 0
	for _, op := range d.ops {
		if strings.HasPrefix(op, "add ") || strings.HasPrefix(op, "delete ") {
			n++
		}
	}
	return n
}

// fakeSource отдаёт участников из среза; err - ошибка после всех участников.
type fakeSource struct {
	members []entities.Member
	err     error
}

func (s *fakeSource) Members(_ context.Context, _ string) iter.Seq2[entities.Member, error] {
	return func(yield func(entities.Member, error) bool) {
		for _, m := range s.members {
			if !yield(m, nil) {
				return
			}
		}
		if s.err != nil {
			yield(entities.Member{}, s.err)
		}
	}
}

// fakeCache повторяет семантику Redis для Set/Get/SetNX/DelIfValue.
type fakeCache struct {
	mu     gosync.Mutex
	values map[string]string
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = toString(value)
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (c *fakeCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = toString(value)
	return true, nil
}

func (c *fakeCache) DelIfValue(_ context.Context, key string, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[key]; !ok || v != value {
		return false, nil
	}
	delete(c.values, key)
	return true, nil
}

// expire имитирует истечение TTL ключа.
func (c *fakeCache) expire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}
