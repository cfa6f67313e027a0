package driver

var ReadSamplesRetry = readSamplesRetry
