// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/present/utility/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the file given")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.kar", "Destination file")
	outDir          = flag.String("o", ".", "Directory to extract into")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		logrus.SetLevel(logrus.WarnLevel)
	}

	if *extract != "" && *compress != "" {
		logrus.Fatal("only one operation at a time")
	}

	switch {
	case *extract != "":
		if err := extractArchive(*extract, *outDir); err != nil {
			logrus.WithError(err).Fatal("extracting")
		}
	case *compress != "":
		name := *author
		if name == "" {
			name = currentUserName
		}
		header := kar.Header{
			Author:      name,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		}
		if err := compressFiles(context.Background(), *compress, *dstFile, header); err != nil {
			logrus.WithError(err).Fatal("compressing")
		}
	default:
		flag.PrintDefaults()
	}
}

// compressFiles archives src, a single file or a folder, into dst
func compressFiles(ctx context.Context, src, dst string, header kar.Header) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	root := src
	if !info.IsDir() {
		root = filepath.Dir(src)
	}

	var filesToCompress []string
	err = filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return err
	}

	karBuilder, err := kar.NewBuilder(header)
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	if err := karBuilder.AddFiles(ctx, root, filesToCompress); err != nil {
		return err
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := karBuilder.WriteTo(f)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	logrus.WithFields(logrus.Fields{
		"files": karBuilder.Len(),
		"bytes": n,
		"file":  dst,
	}).Info("archive written")
	return f.Close()
}

func extractArchive(src, dir string) error {
	archive, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := archive.Extract(dir); err != nil {
		return err
	}
	header := archive.Header()
	logrus.WithFields(logrus.Fields{
		"files":   len(header.Index),
		"author":  header.Author,
		"version": header.Version,
		"id":      header.ID,
	}).Info("archive extracted")
	return nil
}
