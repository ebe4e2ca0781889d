package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Identity is an enrolled identity held in a wallet. Certificate and
// PrivateKey hold PEM encoded material.
type Identity struct {
	Label       string
	MSPID       string
	Certificate []byte
	PrivateKey  []byte
}

type enrollment struct {
	SigningIdentity string `json:"signingIdentity"`
	Identity        struct {
		Certificate string `json:"certificate"`
	} `json:"identity"`
}

// identityFile is the per-identity metadata document, one directory per
// label with the private key stored next to it as <signingIdentity>-priv.
type identityFile struct {
	Name             string     `json:"name"`
	MSPID            string     `json:"mspid"`
	Roles            []string   `json:"roles"`
	Affiliation      string     `json:"affiliation"`
	EnrollmentSecret string     `json:"enrollmentSecret"`
	Enrollment       enrollment `json:"enrollment"`
}

type FileSystemWallet struct {
	fs   afero.Fs
	name string
	path string
}

// Open returns the wallet <dir>/<name>, failing with WalletNotFoundError if
// the directory does not exist.
func Open(fsys afero.Fs, dir, name string) (*FileSystemWallet, error) {
	path := filepath.Join(dir, name)
	ok, err := afero.DirExists(fsys, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &WalletNotFoundError{walletName: name}
	}
	return &FileSystemWallet{fs: fsys, name: name, path: path}, nil
}

// Create opens the wallet <dir>/<name>, creating its directory if needed.
func Create(fsys afero.Fs, dir, name string) (*FileSystemWallet, error) {
	path := filepath.Join(dir, name)
	if err := fsys.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &FileSystemWallet{fs: fsys, name: name, path: path}, nil
}

func (w *FileSystemWallet) Name() string {
	return w.name
}

func (w *FileSystemWallet) Path() string {
	return w.path
}

// Labels lists identity labels in lexical order.
func (w *FileSystemWallet) Labels() ([]string, error) {
	entries, err := afero.ReadDir(w.fs, w.path)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ok, err := afero.Exists(w.fs, filepath.Join(w.path, entry.Name(), entry.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			labels = append(labels, entry.Name())
		}
	}
	sort.Strings(labels)
	return labels, nil
}

func (w *FileSystemWallet) List() ([]Identity, error) {
	labels, err := w.Labels()
	if err != nil {
		return nil, err
	}
	identities := make([]Identity, 0, len(labels))
	for _, label := range labels {
		identity, err := w.Get(label)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, nil
}

func (w *FileSystemWallet) Exists(label string) bool {
	ok, err := afero.Exists(w.fs, filepath.Join(w.path, label, label))
	return err == nil && ok
}

func (w *FileSystemWallet) Get(label string) (Identity, error) {
	dir := filepath.Join(w.path, label)
	raw, err := afero.ReadFile(w.fs, filepath.Join(dir, label))
	if errors.Is(err, fs.ErrNotExist) {
		return Identity{}, fmt.Errorf("%w: %s in wallet %s", ErrIdentityNotFound, label, w.name)
	} else if err != nil {
		return Identity{}, err
	}

	var file identityFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Identity{}, fmt.Errorf("%w: %s: %s", ErrInvalidIdentity, label, err)
	}
	if file.Enrollment.SigningIdentity == "" {
		return Identity{}, fmt.Errorf("%w: %s has no signing identity", ErrInvalidIdentity, label)
	}

	key, err := afero.ReadFile(w.fs, filepath.Join(dir, file.Enrollment.SigningIdentity+"-priv"))
	if err != nil {
		return Identity{}, fmt.Errorf("error reading private key for %s: %w", label, err)
	}

	return Identity{
		Label:       file.Name,
		MSPID:       file.MSPID,
		Certificate: []byte(file.Enrollment.Identity.Certificate),
		PrivateKey:  key,
	}, nil
}

func (w *FileSystemWallet) Put(identity Identity) error {
	if identity.Label == "" || len(identity.Certificate) == 0 || len(identity.PrivateKey) == 0 {
		return fmt.Errorf("%w: label, certificate and private key are required", ErrInvalidIdentity)
	}
	sum := sha256.Sum256(identity.Certificate)
	signingIdentity := hex.EncodeToString(sum[:])

	file := identityFile{
		Name:  identity.Label,
		MSPID: identity.MSPID,
	}
	file.Enrollment.SigningIdentity = signingIdentity
	file.Enrollment.Identity.Certificate = string(identity.Certificate)
	raw, err := json.Marshal(file)
	if err != nil {
		return err
	}

	dir := filepath.Join(w.path, identity.Label)
	// Replace rather than merge so stale keys do not linger.
	if err := w.fs.RemoveAll(dir); err != nil {
		return err
	}
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(w.fs, filepath.Join(dir, signingIdentity+"-priv"), identity.PrivateKey, 0o600); err != nil {
		return err
	}
	return afero.WriteFile(w.fs, filepath.Join(dir, identity.Label), raw, 0o600)
}

func (w *FileSystemWallet) Delete(label string) error {
	if !w.Exists(label) {
		return fmt.Errorf("%w: %s in wallet %s", ErrIdentityNotFound, label, w.name)
	}
	return w.fs.RemoveAll(filepath.Join(w.path, label))
}
