package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"time"
	"tms/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Vouchers live under their own key prefix so a bucket lifecycle rule can
// expire them without touching other assets.
func voucherKey(name string) string {
	return fmt.Sprintf("vouchers/%s.jpeg", name)
}

func voucherTempPath(name string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not read working directory: %s\n", err.Error())
		return "", err
	}
	tempdir := os.Getenv("TEMP_DIR")
	return path.Join(wd, tempdir, fmt.Sprintf("%s.jpeg", name)), nil
}

// S3DownloadVoucher pulls a previously rendered voucher image into the temp
// dir. A missing key is not an error; the caller regenerates the voucher.
func S3DownloadVoucher(name string) error {
	assetsBucket := os.Getenv("S3_ASSETS_BUCKET")
	client := lib.AWSGetS3Client()
	result, err := client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(assetsBucket),
		Key:    aws.String(voucherKey(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return err
	}
	defer result.Body.Close()
	filepath, err := voucherTempPath(name)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(result.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, body, 0644)
}

// S3UploadVoucher stores a rendered voucher image and returns a presigned
// URL. The signature stays valid for the full window the handler caches the
// URL, so a cached link never points at an expired signature.
func S3UploadVoucher(name string, f string) (*string, error) {
	assetsBucket := os.Getenv("S3_ASSETS_BUCKET")
	file, err := os.Open(f)
	if err != nil {
		log.Printf("Could not open voucher file to upload: %s\n", err.Error())
		return nil, err
	}
	defer file.Close()
	key := voucherKey(name)
	client := lib.AWSGetS3Client()
	_, err = client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(assetsBucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		log.Printf("Could not put voucher to S3 bucket: %s\n", err.Error())
		return nil, err
	}
	err = s3.NewObjectExistsWaiter(client).Wait(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(assetsBucket),
		Key:    aws.String(key),
	}, time.Minute)
	if err != nil {
		log.Printf("Failed attempt to wait for voucher %s to exist: %s\n", name, err.Error())
		return nil, err
	}
	log.Printf("Added voucher '%s' to bucket '%s'", key, assetsBucket)
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(assetsBucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = 2 * time.Hour
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for voucher [%s]: %s\n", name, err.Error())
		return nil, err
	}
	return &r.URL, nil
}
