package fathom

var DecodeMeeting = decodeMeeting
