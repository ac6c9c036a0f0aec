package utils

import "encoding/base64"

// DecodeB64 decodes both padded and unpadded URL encoded base64. Invitations
// in the wild use both, and some use the std alphabet as well.
func DecodeB64(str string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(str)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(str)
	}
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(str)
	}
	return data, err
}

// EncodeB64 encodes data with padded URL encoding.
func EncodeB64(data []byte) string {
	return base64.URLEncoding.EncodeToString(data)
}
