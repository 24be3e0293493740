// Package archive bundles a completed staging tree into a single
// distributable file. Archive entries are rooted at the staging directory's
// own basename, so extraction reproduces the original top-level folder.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TarGz creates <stagingRoot>.tar.gz beside the staging directory,
// replacing any previous archive of that name, and returns its path.
func TarGz(stagingRoot string) (string, error) {
	outPath := stagingRoot + ".tar.gz"
	if err := os.RemoveAll(outPath); err != nil {
		return "", fmt.Errorf("failed to remove old archive: %w", err)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer outFile.Close()

	gzWriter := gzip.NewWriter(outFile)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	prefix := filepath.Base(stagingRoot)
	err = filepath.Walk(stagingRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(stagingRoot, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(prefix, relPath))

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			if _, err := io.Copy(tarWriter, file); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", stagingRoot, err)
	}

	return outPath, nil
}

// Zip creates <stagingRoot>.zip beside the staging directory, replacing any
// previous archive of that name, and returns its path.
func Zip(stagingRoot string) (string, error) {
	outPath := stagingRoot + ".zip"
	if err := os.RemoveAll(outPath); err != nil {
		return "", fmt.Errorf("failed to remove old archive: %w", err)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer outFile.Close()

	zipWriter := zip.NewWriter(outFile)
	defer zipWriter.Close()

	prefix := filepath.Base(stagingRoot)
	err = filepath.WalkDir(stagingRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(stagingRoot, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(prefix, relPath))
		header.Method = zip.Deflate

		w, err := zipWriter.CreateHeader(header)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(w, file)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", stagingRoot, err)
	}

	return outPath, nil
}
