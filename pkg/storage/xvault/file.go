package xvault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
)

// FileStore 加密文件存储实现。
//
// 全部键值序列化为单个 JSON 文档，用 age 的 scrypt 口令加密后写盘。
// 每次写操作整体重写文件（凭据量级为个位数键，无性能问题），
// 写入通过临时文件 + rename 保证原子性。
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
	// 内存镜像，启动时从文件加载
	data map[string]string
}

// NewFileStore 创建加密文件存储。
// path 为密文文件路径，passphrase 为加密口令（不得为空）。
// 文件不存在时从空数据开始；存在但无法解密时返回错误。
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	s := &FileStore{
		path:       path,
		passphrase: passphrase,
		data:       make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	ciphertext, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("xvault: read store file: %w", err)
	}
	if len(ciphertext) == 0 {
		return nil
	}

	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return fmt.Errorf("xvault: build identity: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return fmt.Errorf("xvault: decrypt store file: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("xvault: read decrypted store: %w", err)
	}
	if err := json.Unmarshal(plaintext, &s.data); err != nil {
		return fmt.Errorf("xvault: parse store document: %w", err)
	}
	return nil
}

// persist 在持有锁的前提下整体重写密文文件。
func (s *FileStore) persist() error {
	plaintext, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("xvault: marshal store document: %w", err)
	}

	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return fmt.Errorf("xvault: build recipient: %w", err)
	}
	var ciphertext bytes.Buffer
	w, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return fmt.Errorf("xvault: create encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("xvault: encrypt store document: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("xvault: finalize encryption: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("xvault: create store dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext.Bytes(), 0o600); err != nil {
		return fmt.Errorf("xvault: write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("xvault: replace store file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.persist()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.persist()
}

func (s *FileStore) Has(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *FileStore) ClearPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for k := range s.data {
		if hasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.persist()
}

// 确保实现了 Store 接口
var _ Store = (*FileStore)(nil)
