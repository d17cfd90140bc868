package config

import (
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
)

const (
	DBPath    = "db"
	ImagePath = "ram.img"
)

func ExpandHomePath(path string) string {
	res, err := homedir.Expand(path)
	if err != nil {
		panic(err)
	}
	return res
}

func ExpandDBPath(homePath string) string {
	return path.Join(homePath, DBPath)
}

func InitDBDir(homePath string) error {
	p := ExpandDBPath(homePath)
	return os.MkdirAll(p, 0700)
}

func ExpandImagePath(homePath string) string {
	return path.Join(homePath, ImagePath)
}
