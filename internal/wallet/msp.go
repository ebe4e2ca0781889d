package wallet

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// LoadMSP reads an identity from an MSP directory: the first certificate in
// signcerts/ and the first key in keystore/.
func LoadMSP(fsys afero.Fs, label, mspID, mspDir string) (Identity, error) {
	cert, err := firstFile(fsys, filepath.Join(mspDir, "signcerts"))
	if err != nil {
		return Identity{}, err
	}
	key, err := firstFile(fsys, filepath.Join(mspDir, "keystore"))
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Label:       label,
		MSPID:       mspID,
		Certificate: cert,
		PrivateKey:  key,
	}, nil
}

func firstFile(fsys afero.Fs, dir string) ([]byte, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no files found in %s", dir)
	}
	sort.Strings(names)
	return afero.ReadFile(fsys, filepath.Join(dir, names[0]))
}
