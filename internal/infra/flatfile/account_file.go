package flatfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"geocraft/internal/domain"
)

// AccountFile is the account table kept as a delimited file. Save replaces the file through a
// temporary sibling and a rename, so readers see either the old or the new table.
// There is no locking across calls; concurrent writers race and the last rename wins.
type AccountFile struct {
	path string
}

func NewAccountFile(path string) *AccountFile {
	return &AccountFile{path: path}
}

// Load reads every row. A missing file is an empty table.
func (f *AccountFile) Load(_ context.Context) ([]domain.Account, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open accounts: %w", err)
	}
	defer file.Close()
	return DecodeAccounts(file)
}

func (f *AccountFile) Save(_ context.Context, accounts []domain.Account) error {
	var buf bytes.Buffer
	if err := EncodeAccounts(&buf, accounts); err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp accounts: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write accounts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close accounts: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace accounts: %w", err)
	}
	return nil
}

// Append adds one row at the end of the file, writing the header first when the file is new or empty.
func (f *AccountFile) Append(_ context.Context, acc domain.Account) error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat accounts: %w", err)
	}
	if err := EncodeAccountRow(file, acc, info.Size() == 0); err != nil {
		return fmt.Errorf("append account: %w", err)
	}
	return nil
}
