package utils

import "go.mongodb.org/mongo-driver/v2/bson"

// NewID 生成 24 位十六进制 ObjectID，与旧文档库中的 _id 保持同一格式
func NewID() string { return bson.NewObjectID().Hex() }

// IsID 判断 s 是否为合法 ObjectID
func IsID(s string) bool {
	_, err := bson.ObjectIDFromHex(s)
	return err == nil
}
