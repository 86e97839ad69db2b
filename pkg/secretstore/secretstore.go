package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const cookiePrefix = "account/"

var ErrNotOpened = errors.New("secretstore: not opened")

// Store 账户登录态（cookie）的本地加密存储，加密由 Badger 负责
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 字节；为空时不加密
	ReadOnly      bool
	InMemory      bool // 测试用
}

func Open(opts OpenOptions) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(opts.Path) == "" {
			return nil, errors.New("secretstore: path is required")
		}
		bopts = badger.DefaultOptions(opts.Path).WithReadOnly(opts.ReadOnly)
	}
	bopts = bopts.WithLogger(nil)
	if len(opts.EncryptionKey) > 0 {
		// 加密模式下 Badger 要求开启 index cache
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(16 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "secretstore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CookieKey 账户 cookie 的存储键
func CookieKey(accountID string) string {
	return cookiePrefix + strings.TrimSpace(accountID) + "/cookie"
}

// Cookie 读取账户 cookie，不存在时 ok=false
func (s *Store) Cookie(accountID string) (string, bool, error) {
	return s.get(CookieKey(accountID))
}

func (s *Store) SetCookie(accountID, cookie string) error {
	if strings.TrimSpace(accountID) == "" {
		return errors.New("secretstore: account id is empty")
	}
	return s.set(CookieKey(accountID), cookie)
}

func (s *Store) DeleteCookie(accountID string) error {
	if s == nil || s.db == nil {
		return ErrNotOpened
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(CookieKey(accountID)))
	})
}

// AccountIDs 列出已保存 cookie 的账户
func (s *Store) AccountIDs() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotOpened
	}
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(cookiePrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := strings.TrimPrefix(string(it.Item().Key()), cookiePrefix)
			if id, ok := strings.CutSuffix(k, "/cookie"); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (s *Store) get(key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrNotOpened
	}
	var (
		out   string
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "secretstore: get %s", key)
	}
	return out, found, nil
}

func (s *Store) set(key, val string) error {
	if s == nil || s.db == nil {
		return ErrNotOpened
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(val))
	})
}

// ParseKey 解析 32 字节密钥（hex 或 base64），空串返回 nil
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
	}
	return b, nil
}
