package handlers

import (
	"threadfinder/config"
	"threadfinder/processing"
	"threadfinder/storage"
)

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined errors
	NoFilePartResponse     = Response{"No file part in the request"}
	NoFileSelectedResponse = Response{"No file selected for uploading"}
	InvalidFileResponse    = Response{"Invalid file type or no file provided."}
	InvalidParamsResponse  = Response{"Invalid parameter value type provided."}
	TooLargeResponse       = Response{"File is too large."}
	SaveFailedResponse     = Response{"Failed to save uploaded file."}
	BusyResponse           = Response{"Request cancelled while waiting for a free worker."}
	HistoryOffResponse     = Response{"history disabled"}
	DBError1Response       = Response{"DB Error 1"}
)

// Handlers serves the HTTP API on top of an annotation pool and the upload storage
type Handlers struct {
	Pool    *processing.Pool
	Storage storage.StorageAPI
	// MaxUploadBytes limits the whole request body of an upload
	MaxUploadBytes int64
}

func New(pool *processing.Pool, store storage.StorageAPI) *Handlers {
	return &Handlers{
		Pool:           pool,
		Storage:        store,
		MaxUploadBytes: int64(config.MAX_UPLOAD_MB) << 20,
	}
}
