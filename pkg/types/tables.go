package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

// TABLE_PREFIX is empty because the tables live in the hosted project's public schema
// and are shared with the web client.
const TABLE_PREFIX = ""

const (
	TABLE_CHAT_SESSION           = TableName("chat_sessions")
	TABLE_MESSAGE                = TableName("messages")
	TABLE_SPACE                  = TableName("spaces")
	TABLE_USER_FILE              = TableName("user_files")
	TABLE_UNIVERSITY_CREDENTIALS = TableName("university_credentials")
)
