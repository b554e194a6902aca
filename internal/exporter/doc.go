// Package exporter writes filtered audit lists to CSV and XLSX, both as
// streamed HTTP downloads and as report files on disk.
package exporter
