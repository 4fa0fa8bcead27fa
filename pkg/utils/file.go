package utils

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var extMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

type FileInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ModTime     time.Time `json:"mod_time,omitempty"`
}

// GetFileInfo 获取本地文件的基本信息
func GetFileInfo(filePath string) (FileInfo, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to get file info: %w", err)
	}
	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", filePath)
	}

	return FileInfo{
		Name:        stat.Name(),
		Path:        filePath,
		Size:        stat.Size(),
		ContentType: GetMimeTypeByExtension(filepath.Ext(filePath)),
		ModTime:     stat.ModTime(),
	}, nil
}

// GetMimeTypeByExtension 根据文件扩展名获取MIME类型
func GetMimeTypeByExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ct, ok := extMimeTypes[ext]; ok {
		return ct
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}
	return cleanContentType(contentType)
}

func cleanContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}
