package handler

const (
	formFieldProfilePicture = "profilePicture"
	paramPictureKey         = "key"
	queryRequestedFields    = "requestedFields"
	fieldSeparator          = ","
)

const (
	msgContentTypeJSONRequired = "content type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidQuery            = "invalid query parameters"
	msgUserAlreadyExists       = "user already exists"
	msgCreateUserFailed        = "failed to create user"
	msgListUsersFailed         = "failed to list users"
	msgPictureRequired         = "profilePicture file is required"
	msgPictureReadFailed       = "failed to read picture"
	msgUploadPictureFailed     = "failed to upload picture"
	msgInvalidPictureKey       = "picture key must be a UUID"
	msgPictureNotFound         = "picture not found"
	msgDownloadURLFailed       = "failed to generate download URL"
)
