package v1

import (
	"context"
	"io"
	"log/slog"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/drive"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
)

type DriveFiles interface {
	GetFileInfo(ctx context.Context, fileID string) (*drive.FileInfo, error)
	Download(ctx context.Context, info drive.FileInfo) (*drive.DownloadedFile, error)
}

type DriveImportLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewDriveImportLogic(ctx context.Context, core *core.Core) *DriveImportLogic {
	return &DriveImportLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

// Import validates every picked file before transferring any, then downloads and
// uploads the valid ones in order. Google Docs are imported as DOCX.
func (l *DriveImportLogic) Import(spaceID string, files DriveFiles, fileIDs []string) UploadReport {
	upload := NewUploadLogic(l.ctx, l.core)

	var (
		report  UploadReport
		sources []UploadSource
	)
	for _, id := range fileIDs {
		info, err := files.GetFileInfo(l.ctx, id)
		if err != nil {
			slog.Warn("failed to get drive file info", slog.String("file_id", id), slog.String("error", err.Error()))
			report.Failed = append(report.Failed, FileFailure{
				Name:    id,
				Message: l.core.Text(i18n.ERROR_DRIVE_INFO_FAILED, nil),
				Err:     errors.New("DriveImportLogic.Import.GetFileInfo", i18n.ERROR_DRIVE_INFO_FAILED, err).Kind(errors.KindPartialFile),
			})
			continue
		}

		src := driveSource(files, *info)
		if err = upload.ValidateFile(src.Name, src.MimeType, src.Size, types.SpaceFileMimeTypes); err != nil {
			report.Failed = append(report.Failed, upload.failure(src.Name, err))
			continue
		}
		sources = append(sources, src)
	}

	res := upload.UploadFiles(spaceID, types.SpaceFileMimeTypes, sources)
	report.Uploaded = res.Uploaded
	report.Failed = append(report.Failed, res.Failed...)
	return report
}

func driveSource(files DriveFiles, info drive.FileInfo) UploadSource {
	src := UploadSource{
		Name:     info.Name,
		MimeType: info.MimeType,
		Size:     info.Size,
	}
	if info.IsGoogleDoc() {
		src.Name = drive.DocxName(info.Name)
		src.MimeType = types.MIME_DOCX
	}
	src.Open = func(ctx context.Context) (io.ReadCloser, error) {
		file, err := files.Download(ctx, info)
		if err != nil {
			return nil, errors.New("DriveImportLogic.Download", i18n.ERROR_DRIVE_DOWNLOAD_FAILED, err).
				Kind(errors.KindPartialFile).
				WithData(map[string]interface{}{"Name": info.Name})
		}
		return file.Body, nil
	}
	return src
}
