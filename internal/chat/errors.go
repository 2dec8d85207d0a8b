package chat

import "errors"

var (
	ErrRoomFull     = errors.New("chat room is full")
	ErrRoomNotFound = errors.New("room does not exist")
	ErrRoomNotEmpty = errors.New("room is not empty")
	ErrDefaultRoom  = errors.New("default room cannot be deleted")
	ErrNameEmpty    = errors.New("username cannot be empty")
	ErrNameTaken    = errors.New("username already in use")
)
