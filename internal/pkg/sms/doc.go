// Package sms delivers text messages to phones.
//
// HTTPGateway speaks the query-string send API of the bulk SMS provider;
// Log writes messages to the structured log for local runs.
package sms
