// Package uploadthing is a server-side client for the UploadThing file service.
//
// A Client is built from an UPLOADTHING_TOKEN, a base64 JSON document carrying
// the API key, the app id and the regions the app may upload to:
//
//	client, err := uploadthing.New(uploadthing.WithEnv(""))
//	if err != nil {
//	    return err
//	}
//
//	results, err := client.UploadFiles(ctx, []uploadthing.File{
//	    uploadthing.FileFromBytes("hello.txt", []byte("hello")),
//	}, uploadthing.WithACL(uploadthing.ACLPrivate))
//
// Uploads go straight to the regional ingest endpoint through HMAC-signed URLs
// (see package presigned) under keys derived from the app id (see package filekey).
// The remaining operations (DeleteFiles, ListFiles, GetUsageInfo, RenameFiles,
// UpdateACL) are JSON POSTs to the REST API.
//
// Replies are normalized to snake_case keys before decoding, and every non-2xx
// reply surfaces as an *APIError.
package uploadthing
