/*
Package model resolves model specification strings into descriptors.

A model spec has the form "<path>[:<encoding>]". The encoding defaults to UTF-8.
A colon that belongs to a Windows drive letter ("C:\model.par", "C:/model.par")
is never taken as the encoding separator.
*/
package model
