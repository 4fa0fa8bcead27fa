package i18n

var ALLOW_LANG = map[string]bool{
	"vi": true,
	"en": true,
}

const DEFAULT_LANG = "vi"

const (
	ERROR_INTERNAL        = "error.internal"
	ERROR_NOT_FOUND       = "error.notfound"
	ERROR_INVALIDARGUMENT = "error.invalidargument"
	ERROR_UNAUTHORIZED    = "error.unauthorized"
	ERROR_BUSY            = "error.busy"

	ERROR_CHAT_REQUEST_FAILED   = "error.chat.request_failed"
	ERROR_SESSION_CREATE_FAILED = "error.session.create_failed"
	ERROR_SESSION_NOT_FOUND     = "error.session.notfound"
	ERROR_EMPTY_MESSAGE         = "error.chat.empty_message"

	ERROR_FILE_TYPE_UNSUPPORTED = "error.file.type_unsupported"
	ERROR_FILE_TOO_LARGE        = "error.file.too_large"
	ERROR_FILE_UPLOAD_FAILED    = "error.file.upload_failed"
	ERROR_FILE_DELETE_FAILED    = "error.file.delete_failed"
	ERROR_FILE_READ_FAILED      = "error.file.read_failed"

	ERROR_SPACE_NAME_REQUIRED    = "error.space.name_required"
	ERROR_SPACE_FIELD_TOO_LONG   = "error.space.field_too_long"
	ERROR_SPACE_NOT_SELECTED     = "error.space.not_selected"
	ERROR_DRIVE_NOT_AUTHORIZED   = "error.drive.not_authorized"
	ERROR_DRIVE_DOWNLOAD_FAILED  = "error.drive.download_failed"
	ERROR_DRIVE_INFO_FAILED      = "error.drive.info_failed"
	ERROR_LOGIN_FAILED           = "error.login.failed"
	ERROR_ARCHIVE_NOT_CONFIGURED = "error.archive.not_configured"

	NOTICE_FILE_UPLOADED       = "notice.file_uploaded"
	NOTICE_FILE_REMOVED        = "notice.file_removed"
	NOTICE_SPACE_FILE_REMOVED  = "notice.space_file_removed"
	NOTICE_AGENT_SWITCHED      = "notice.agent_switched"
	NOTICE_SPACE_FILE_UPLOADED = "notice.space_file_uploaded"
)
