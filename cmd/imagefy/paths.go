package main

import (
	"path/filepath"
	"strings"

	"github.com/flaneur2020/imagefy/imagefy"
	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/flaneur2020/imagefy/imagefy/logger"
	"github.com/flaneur2020/imagefy/imagefy/storage"
)

const defaultOutput = "."

// checkInputsExist fails on an empty input list or the first missing path.
func checkInputsExist(s storage.Storage, inputs []string) error {
	if len(inputs) == 0 {
		return imagefyerrors.ErrNoInput.WithMessage("no input file detected")
	}
	for _, input := range inputs {
		exists, err := storage.Exists(s, input)
		if err != nil {
			return imagefy.NewIOError("stat", input, err)
		}
		if !exists {
			return imagefy.NewPathNotFoundError(input)
		}
	}
	return nil
}

// fileStem is the final path element without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}

// planEncode validates encode arguments and returns the input file and the
// image directory to create. An existing output directory receives a new
// "<stem>_image" sub-directory.
func planEncode(s storage.Storage, inputs []string, output string) (string, string, error) {
	if err := checkInputsExist(s, inputs); err != nil {
		return "", "", err
	}
	if len(inputs) != 1 {
		return "", "", imagefyerrors.ErrPathTypeMismatch.
			WithMessage("multiple input files are not allowed").
			WithDetail("count", len(inputs))
	}

	input := inputs[0]
	if storage.IsDir(s, input) {
		return "", "", imagefy.NewPathTypeError(input, false)
	}

	if output == "" {
		output = defaultOutput
	}
	if storage.IsDir(s, output) {
		output = filepath.Join(output, fileStem(input)+"_image")
	}

	exists, err := storage.Exists(s, output)
	if err != nil {
		return "", "", imagefy.NewIOError("stat", output, err)
	}
	if exists {
		return "", "", imagefyerrors.ErrOutputCollision.
			WithMessage("directory already exists").
			WithDetail("path", output)
	}

	return input, output, nil
}

// warnSequenceGap logs the first image whose number does not follow the
// encoder's 0, 1, 2, ... numbering.
func warnSequenceGap(images []storage.ImageDescriptor) {
	for i, img := range images {
		if img.Index != int64(i) {
			logger.Warn("%s is out of sequence, expected image %d", img.Path, i)
			return
		}
	}
}

// planDecode validates decode arguments and returns the ordered image paths
// and the output path. A single directory input is expanded to its .png
// files in name order, which is the order the encoder numbers them.
func planDecode(s storage.Storage, inputs []string, output string) ([]string, string, error) {
	if err := checkInputsExist(s, inputs); err != nil {
		return nil, "", err
	}

	paths := inputs
	if len(inputs) == 1 && storage.IsDir(s, inputs[0]) {
		images, err := s.ListImages(inputs[0])
		if err != nil {
			return nil, "", imagefy.NewIOError("list", inputs[0], err)
		}
		if len(images) == 0 {
			return nil, "", imagefyerrors.ErrNoInput.
				WithMessage("no images found in directory").
				WithDetail("path", inputs[0])
		}
		paths = make([]string, len(images))
		for i, img := range images {
			paths[i] = img.Path
		}
		warnSequenceGap(images)
	}

	for _, path := range paths {
		if storage.IsDir(s, path) {
			return nil, "", imagefy.NewPathTypeError(path, false)
		}
		if !strings.EqualFold(filepath.Ext(path), storage.ImageExt) {
			return nil, "", imagefyerrors.ErrPathTypeMismatch.
				WithMessage("path is not an image").
				WithDetail("path", path)
		}
	}

	if output == "" {
		output = defaultOutput
	}
	if !storage.IsDir(s, output) {
		exists, err := storage.Exists(s, output)
		if err != nil {
			return nil, "", imagefy.NewIOError("stat", output, err)
		}
		if exists {
			return nil, "", imagefyerrors.ErrOutputAlreadyExists.
				WithMessage("file already exists, try -o [PATH]").
				WithDetail("path", output)
		}
	}

	return paths, output, nil
}
