// Package presigned builds and checks HMAC-signed UploadThing ingest URLs.
//
// A signed URL authorizes one direct upload to a regional ingest endpoint
// for a limited time, without any further session lookup on the server.
//
// # URL Format
//
//	https://<region>.ingest.uploadthing.com/<file_key>
//	    ?expires=<unix ms>
//	    &x-ut-identifier=<app id>
//	    &x-ut-file-name=<name>
//	    &x-ut-file-size=<bytes>
//	    [&x-ut-file-type=<mime>]
//	    [&x-ut-custom-id=<id>]
//	    [&x-ut-content-disposition=<inline|attachment>]
//	    [&x-ut-acl=<public-read|private>]
//	    &signature=hmac-sha256=<hex>
//
// The signature is HMAC-SHA256, keyed with the API key, over every byte
// before "&signature=". Parameter order is part of the contract.
//
// # Basic Usage
//
// Generate a signed URL:
//
//	signer := presigned.New()
//	params := presigned.DefaultUploadParams()
//	params.Region = "sea2"
//	params.FileKey = key
//	params.APIKey = apiKey
//	params.AppID = appID
//	params.FileName = "photo.jpg"
//	params.FileSize = 1024
//	url, err := signer.SignUploadURL(params)
//
// Upload to it:
//
//	client := presigned.NewClient()
//	resp, err := client.Upload(ctx, url, presigned.UploadFile{Name: "photo.jpg", Reader: f})
//
// Check one on the receiving side:
//
//	err := signer.Verify(url, apiKey)
//	if presigned.IsAuthError(err) {
//	    // Invalid signature or expired URL
//	}
//
// # Configuration Options
//
//	signer := presigned.New(
//	    presigned.WithExpiration(30*time.Minute),
//	    presigned.WithClock(func() time.Time { return fixed }),
//	    presigned.WithIngestURL("http://127.0.0.1:8081"),
//	)
package presigned
